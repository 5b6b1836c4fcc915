package ou

import (
	"errors"
	"fmt"
	"math"
)

const log2Pi = 1.8378770664093454835606594728112352797227949472755668

// ErrBroadcast indicates that a per-element parameter slice cannot be
// broadcast against the observed path.
var ErrBroadcast = errors.New("parameter length does not broadcast against path")

// logNormal returns the log-density of a Normal(mu, variance v) at y.
// v must be positive; a non-positive v yields NaN, which is the desired
// behavior when a sampler proposes an invalid parameter.
func logNormal(y, mu, v float64) float64 {
	r := y - mu
	return -0.5*(log2Pi+math.Log(v)) - r*r/(2*v)
}

// LogLikelihood returns the exact joint log-density of the path x under a
// stationary OU process with stationary variance a and lag-1 correlation b.
//
// The result is the stationary term for x[0] plus one transition term per
// subsequent point. For len(x) == 1 it is exactly the stationary term.
// len(x) == 0 contributes nothing and returns 0.
func LogLikelihood(x []float64, a, b float64) float64 {
	if len(x) == 0 {
		return 0
	}
	ll := logNormal(x[0], 0, a)
	v := a * (1 - b*b)
	for i := 1; i < len(x); i++ {
		ll += logNormal(x[i], b*x[i-1], v)
	}
	return ll
}

// LogLikelihoodBroadcast is LogLikelihood with per-element parameter
// slices. a and b must each have length 1 (broadcast to every point) or
// len(x). Element i of a and b parameterizes the transition into x[i];
// a[0] is the stationary variance of the first point.
func LogLikelihoodBroadcast(x, a, b []float64) (float64, error) {
	if len(x) == 0 {
		return 0, nil
	}
	if len(a) != 1 && len(a) != len(x) {
		return 0, fmt.Errorf("A has length %d, path has length %d: %w", len(a), len(x), ErrBroadcast)
	}
	if len(b) != 1 && len(b) != len(x) {
		return 0, fmt.Errorf("B has length %d, path has length %d: %w", len(b), len(x), ErrBroadcast)
	}
	at := func(p []float64, i int) float64 {
		if len(p) == 1 {
			return p[0]
		}
		return p[i]
	}
	ll := logNormal(x[0], 0, at(a, 0))
	for i := 1; i < len(x); i++ {
		ai, bi := at(a, i), at(b, i)
		ll += logNormal(x[i], bi*x[i-1], ai*(1-bi*bi))
	}
	return ll, nil
}

// Score returns the partial derivatives of LogLikelihood(x, a, b) with
// respect to a and b. The derivatives are closed-form, making the
// likelihood usable inside gradient-based samplers without numeric
// differentiation.
func Score(x []float64, a, b float64) (dA, dB float64) {
	if len(x) == 0 {
		return 0, 0
	}
	// Stationary term: -log(2*pi*A)/2 - x0^2/(2A).
	dA = -1/(2*a) + x[0]*x[0]/(2*a*a)

	v := a * (1 - b*b)
	for i := 1; i < len(x); i++ {
		r := x[i] - b*x[i-1]
		// d/dV of a transition term, then chain through V = A(1-B^2).
		dV := -1/(2*v) + r*r/(2*v*v)
		dA += dV * (1 - b*b)
		dB += r*x[i-1]/v + dV*(-2*a*b)
	}
	return dA, dB
}

// ScorePath writes the partial derivatives of LogLikelihood(x, a, b) with
// respect to each path element into dx, which must have length len(x).
// Each interior point appears in two transition terms, once as the
// predicted value and once as the predictor.
func ScorePath(x []float64, a, b float64, dx []float64) {
	if len(dx) != len(x) {
		panic("ou: dx length does not match x")
	}
	if len(x) == 0 {
		return
	}
	for i := range dx {
		dx[i] = 0
	}
	dx[0] = -x[0] / a
	v := a * (1 - b*b)
	for i := 1; i < len(x); i++ {
		r := x[i] - b*x[i-1]
		dx[i] += -r / v
		dx[i-1] += b * r / v
	}
}

// DampingToLag converts a damping rate d to the lag-1 correlation
// B = exp(-deltaT*d/a).
func DampingToLag(d, a, deltaT float64) float64 {
	return math.Exp(-deltaT * d / a)
}

// LagToDamping is the inverse of DampingToLag: D = -A*ln(B)/deltaT.
func LagToDamping(b, a, deltaT float64) float64 {
	return -a * math.Log(b) / deltaT
}
