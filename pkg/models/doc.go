// Package models defines the Ornstein-Uhlenbeck model variants the
// engine can fit. All four share engine behavior and differ only in
// graph construction: which parameters are free and under which priors,
// which are deterministic transforms of the others, and how the OU
// likelihood attaches to the observed data.
//
//   - OUDA: uniform priors on damping rate D and amplitude A; the lag-1
//     correlation B = exp(-delta_t*D/A) is deterministic.
//   - OUBA: uniform priors directly on B and A.
//   - LangevinPlusNoiseIG: gamma-family priors, a latent OU path, and
//     Gaussian measurement noise on top of it.
//   - LangevinIG2: two paths driven independently but sharing one damping
//     rate D, each with its own amplitude prior.
//
// Prior hyperparameters (bounds and gamma shape/rate values) are named
// inputs, bound to mutable containers like the data, so they can be
// rebound between runs without rebuilding the graph.
package models
