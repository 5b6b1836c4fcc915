package models

import (
	"github.com/oufit/oufit/pkg/engine"
	"github.com/oufit/oufit/pkg/ou"
)

// OUBA fits a plain OU process parameterized directly by the lag-1
// correlation and amplitude: B ~ Uniform(0, b_bound),
// A ~ Uniform(0, a_bound), with the exact OU likelihood on the observed
// path x.
type OUBA struct{}

// Name implements engine.ModelBuilder.
func (OUBA) Name() string { return "ou_ba" }

// RequiredInputs implements engine.ModelBuilder.
func (OUBA) RequiredInputs() []string {
	return []string{"x", "b_bound", "a_bound"}
}

// BuildModel implements engine.ModelBuilder.
func (OUBA) BuildModel(b *engine.GraphBuilder, in *engine.InputSet) error {
	b.Uniform("B", engine.Const(0), b.Input("b_bound"))
	b.Uniform("A", engine.Const(0), b.Input("a_bound"))

	b.Likelihood("path", func(e *engine.Env) float64 {
		return ou.LogLikelihood(e.Data("x"), e.Value("A"), e.Value("B"))
	})
	return nil
}
