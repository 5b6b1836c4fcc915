// Package sampler defines the boundary between the inference engine and
// the MCMC routine that draws from a posterior.
//
// The engine hands a Target (anything exposing a log-density over an
// unconstrained parameter vector) to a Sampler and gets back a Trace of
// posterior draws. The stock implementation, MetropolisHastings, adapts
// gonum's stat/samplemv Metropolis-Hastings kernel with a Gaussian
// random-walk proposal whose scale is tuned during warm-up toward a target
// acceptance rate and frozen afterwards.
//
// Targets that additionally implement Recorder control how raw
// unconstrained draws are mapped to named parameter columns in the Trace;
// the engine's graphs use this to report constrained parameter values and
// deterministic transforms rather than sampler-internal coordinates.
package sampler
