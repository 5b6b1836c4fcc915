package engine

import "math"

// Transform maps a free parameter between its constrained support and the
// unconstrained space the sampler moves in. LogJacobian is the log of the
// absolute derivative of Constrain at z, the change-of-variable term added
// to the prior log-density so the unconstrained posterior is the correct
// pushforward.
type Transform interface {
	// Constrain maps an unconstrained value to the support.
	Constrain(z float64) float64

	// Unconstrain maps a value on the support to unconstrained space.
	Unconstrain(x float64) float64

	// LogJacobian returns log|d Constrain/dz| at z.
	LogJacobian(z float64) float64
}

// identityTransform leaves values unchanged. Used for latent paths, whose
// support is the whole real line.
type identityTransform struct{}

func (identityTransform) Constrain(z float64) float64   { return z }
func (identityTransform) Unconstrain(x float64) float64 { return x }
func (identityTransform) LogJacobian(float64) float64   { return 0 }

// logTransform maps the real line onto (0, inf) via exp. Used for
// gamma-family priors.
type logTransform struct{}

func (logTransform) Constrain(z float64) float64   { return math.Exp(z) }
func (logTransform) Unconstrain(x float64) float64 { return math.Log(x) }
func (logTransform) LogJacobian(z float64) float64 { return z }

// intervalTransform maps the real line onto (lo, hi) via a scaled
// logistic. Used for uniform priors on a bounded interval.
type intervalTransform struct {
	lo, hi float64
}

func (t intervalTransform) Constrain(z float64) float64 {
	return t.lo + (t.hi-t.lo)*sigmoid(z)
}

func (t intervalTransform) Unconstrain(x float64) float64 {
	p := (x - t.lo) / (t.hi - t.lo)
	return math.Log(p / (1 - p))
}

func (t intervalTransform) LogJacobian(z float64) float64 {
	s := sigmoid(z)
	return math.Log(t.hi-t.lo) + math.Log(s) + math.Log(1-s)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
