package models

import (
	"github.com/oufit/oufit/pkg/engine"
	"github.com/oufit/oufit/pkg/ou"
)

// OUDA fits a plain OU process parameterized by damping rate and
// amplitude: D ~ Uniform(0, d_bound), A ~ Uniform(0, a_bound), with
// B = exp(-delta_t*D/A) deterministic and the exact OU likelihood on the
// observed path x.
type OUDA struct{}

// Name implements engine.ModelBuilder.
func (OUDA) Name() string { return "ou_da" }

// RequiredInputs implements engine.ModelBuilder.
func (OUDA) RequiredInputs() []string {
	return []string{"x", "d_bound", "a_bound", "delta_t"}
}

// BuildModel implements engine.ModelBuilder.
func (OUDA) BuildModel(b *engine.GraphBuilder, in *engine.InputSet) error {
	deltaT := b.Input("delta_t")

	b.Uniform("D", engine.Const(0), b.Input("d_bound"))
	b.Uniform("A", engine.Const(0), b.Input("a_bound"))

	b.Deterministic("B", func(e *engine.Env) float64 {
		return ou.DampingToLag(e.Value("D"), e.Value("A"), deltaT.Value())
	})

	b.Likelihood("path", func(e *engine.Env) float64 {
		return ou.LogLikelihood(e.Data("x"), e.Value("A"), e.Value("B"))
	})
	return nil
}
