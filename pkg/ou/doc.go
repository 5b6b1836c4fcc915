// Package ou implements the exact log-likelihood of a discretely observed,
// stationary Ornstein-Uhlenbeck process, together with its analytic score
// (partial derivatives) and a path simulator.
//
// A stationary OU process sampled on a regular grid with spacing delta_t is
// an AR(1) process. It is parameterized here by the stationary variance A
// (A > 0) and the lag-1 autocorrelation B (0 < B < 1). The damping-rate
// parameterization D relates to B via B = exp(-delta_t*D/A); the
// DampingToLag and LagToDamping helpers convert between the two.
//
// The joint density of a path x[0..n-1] factorizes as the stationary
// marginal of the first point,
//
//	x[0] ~ Normal(0, A)
//
// followed by one Gaussian transition per step,
//
//	x[i] | x[i-1] ~ Normal(B*x[i-1], A*(1-B^2))
//
// This is the exact likelihood of the Gauss-Markov process, not an Euler
// discretization.
//
// All functions are pure. Parameter validity (A > 0, 0 < B < 1) is the
// caller's responsibility; in the inference engine it is enforced by the
// priors, so out-of-range parameters simply produce NaN or -Inf densities
// here, which a sampler rejects.
package ou
