package models

import (
	"github.com/oufit/oufit/pkg/engine"
	"github.com/oufit/oufit/pkg/ou"
)

// LangevinIG2 fits two OU paths driven independently but damped at a
// common rate: D ~ InverseGamma(aD, bD), A1 ~ Gamma(aA1, bA1),
// A2 ~ Gamma(aA2, bA2), B1 and B2 both deterministic as
// exp(-delta_t*D/Ai), with one exact OU likelihood per observed path.
type LangevinIG2 struct{}

// Name implements engine.ModelBuilder.
func (LangevinIG2) Name() string { return "langevin_ig2" }

// RequiredInputs implements engine.ModelBuilder.
func (LangevinIG2) RequiredInputs() []string {
	return []string{"x1", "x2", "aD", "bD", "aA1", "bA1", "aA2", "bA2", "delta_t"}
}

// BuildModel implements engine.ModelBuilder.
func (LangevinIG2) BuildModel(b *engine.GraphBuilder, in *engine.InputSet) error {
	deltaT := b.Input("delta_t")

	b.InverseGamma("D", b.Input("aD"), b.Input("bD"))
	b.Gamma("A1", b.Input("aA1"), b.Input("bA1"))
	b.Gamma("A2", b.Input("aA2"), b.Input("bA2"))

	b.Deterministic("B1", func(e *engine.Env) float64 {
		return ou.DampingToLag(e.Value("D"), e.Value("A1"), deltaT.Value())
	})
	b.Deterministic("B2", func(e *engine.Env) float64 {
		return ou.DampingToLag(e.Value("D"), e.Value("A2"), deltaT.Value())
	})

	b.Likelihood("path1", func(e *engine.Env) float64 {
		return ou.LogLikelihood(e.Data("x1"), e.Value("A1"), e.Value("B1"))
	})
	b.Likelihood("path2", func(e *engine.Env) float64 {
		return ou.LogLikelihood(e.Data("x2"), e.Value("A2"), e.Value("B2"))
	})
	return nil
}
