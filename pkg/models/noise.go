package models

import (
	"github.com/oufit/oufit/pkg/engine"
	"github.com/oufit/oufit/pkg/ou"
)

// LangevinPlusNoiseIG fits an OU process observed through additive
// Gaussian measurement noise. The OU path itself is latent:
// D ~ InverseGamma(aD, bD), A ~ Gamma(aA, bA), sN ~ InverseGamma(aN, bN),
// B = exp(-delta_t*D/A) deterministic, path ~ OU(A, B) of length N, and
// x[i] ~ Normal(path[i], sN).
//
// N fixes the latent path length at build time; it is part of the graph
// structure, so fitting data of a different length needs a fresh engine.
type LangevinPlusNoiseIG struct{}

// Name implements engine.ModelBuilder.
func (LangevinPlusNoiseIG) Name() string { return "langevin_plus_noise_ig" }

// RequiredInputs implements engine.ModelBuilder.
func (LangevinPlusNoiseIG) RequiredInputs() []string {
	return []string{"x", "aD", "bD", "aA", "bA", "aN", "bN", "delta_t", "N"}
}

// BuildModel implements engine.ModelBuilder.
func (LangevinPlusNoiseIG) BuildModel(b *engine.GraphBuilder, in *engine.InputSet) error {
	n, err := in.Scalar("N")
	if err != nil {
		return err
	}
	deltaT := b.Input("delta_t")

	b.InverseGamma("D", b.Input("aD"), b.Input("bD"))
	b.Gamma("A", b.Input("aA"), b.Input("bA"))
	b.InverseGamma("sN", b.Input("aN"), b.Input("bN"))

	b.Deterministic("B", func(e *engine.Env) float64 {
		return ou.DampingToLag(e.Value("D"), e.Value("A"), deltaT.Value())
	})

	b.Latent("path", int(n))
	b.Likelihood("path_prior", func(e *engine.Env) float64 {
		return ou.LogLikelihood(e.Vector("path"), e.Value("A"), e.Value("B"))
	})
	b.NormalObserved("X_obs", "x", "path", "sN")
	return nil
}
