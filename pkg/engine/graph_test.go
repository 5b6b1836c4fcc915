package engine

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

func inputSet(t *testing.T, in Inputs) *InputSet {
	t.Helper()
	s := NewInputSet()
	for name, v := range in {
		if err := s.bind(name, v); err != nil {
			t.Fatalf("bind(%s): %v", name, err)
		}
	}
	return s
}

// TestTransformRoundTrip checks every transform inverts itself on its
// support.
func TestTransformRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		xs   []float64
	}{
		{"identity", identityTransform{}, []float64{-3, 0, 2.5}},
		{"log", logTransform{}, []float64{0.01, 1, 42}},
		{"interval(0,5)", intervalTransform{lo: 0, hi: 5}, []float64{0.001, 2.5, 4.999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, x := range tt.xs {
				z := tt.tr.Unconstrain(x)
				back := tt.tr.Constrain(z)
				if math.Abs(back-x) > 1e-9 {
					t.Errorf("round trip %v -> %v -> %v", x, z, back)
				}
			}
		})
	}
}

// TestTransformLogJacobian checks the analytic Jacobians against finite
// differences of Constrain.
func TestTransformLogJacobian(t *testing.T) {
	const h = 1e-6
	trs := []Transform{logTransform{}, intervalTransform{lo: 0, hi: 3}}
	for _, tr := range trs {
		for _, z := range []float64{-1.5, 0, 0.7} {
			num := math.Log(math.Abs(tr.Constrain(z+h)-tr.Constrain(z-h)) / (2 * h))
			got := tr.LogJacobian(z)
			if math.Abs(got-num) > 1e-5 {
				t.Errorf("%T at z=%v: log|J| = %v, finite difference = %v", tr, z, got, num)
			}
		}
	}
}

// TestBuildScopedFinalization checks the builder is unusable after Build
// returns, also when construction failed.
func TestBuildScopedFinalization(t *testing.T) {
	in := inputSet(t, Inputs{"x": []float64{1}})

	var leaked *GraphBuilder
	_, err := Build(in, func(b *GraphBuilder) error {
		leaked = b
		return errors.New("construction aborted")
	})
	if err == nil {
		t.Fatal("expected build error")
	}

	defer func() {
		if recover() == nil {
			t.Error("using a finalized builder did not panic")
		}
	}()
	leaked.Uniform("late", Const(0), Const(1))
}

// TestBuildErrors covers duplicate names, empty graphs, and bad latents.
func TestBuildErrors(t *testing.T) {
	in := inputSet(t, Inputs{"x": []float64{1, 2}})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := Build(in, func(b *GraphBuilder) error {
			b.Uniform("a", Const(0), Const(1))
			b.Gamma("a", Const(1), Const(1))
			return nil
		})
		if !IsBuildFailed(err) {
			t.Errorf("error = %v, want build-failed", err)
		}
	})

	t.Run("no free parameters", func(t *testing.T) {
		_, err := Build(in, func(b *GraphBuilder) error { return nil })
		if !IsBuildFailed(err) {
			t.Errorf("error = %v, want build-failed", err)
		}
	})

	t.Run("non-positive latent length", func(t *testing.T) {
		_, err := Build(in, func(b *GraphBuilder) error {
			b.Latent("path", 0)
			return nil
		})
		if !IsInvalidParameter(err) {
			t.Errorf("error = %v, want invalid-parameter", err)
		}
	})

	t.Run("unknown input param", func(t *testing.T) {
		_, err := Build(in, func(b *GraphBuilder) error {
			b.Uniform("a", Const(0), b.Input("nope"))
			return nil
		})
		if !IsMissingInput(err) {
			t.Errorf("error = %v, want missing-input", err)
		}
	})
}

// TestGraphPriorDensities verifies the unconstrained log-density matches
// a hand computation of prior, Jacobian, and likelihood for a small
// graph.
func TestGraphPriorDensities(t *testing.T) {
	in := inputSet(t, Inputs{"x": []float64{0.4}})
	g, err := Build(in, func(b *GraphBuilder) error {
		b.Gamma("a", Const(2), Const(1))
		b.Likelihood("obs", func(e *Env) float64 {
			return -e.Value("a") * e.Data("x")[0]
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	z := 0.3
	a := math.Exp(z)
	want := distuv.Gamma{Alpha: 2, Beta: 1}.LogProb(a) + z + (-a * 0.4)
	got := g.LogProb([]float64{z})
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb = %v, want %v", got, want)
	}
}

// TestLatentVectorLayout checks latent vectors occupy contiguous
// coordinates and are visible to likelihoods but absent from the trace
// row.
func TestLatentVectorLayout(t *testing.T) {
	in := inputSet(t, Inputs{"x": []float64{1, 2, 3}})
	g, err := Build(in, func(b *GraphBuilder) error {
		b.Gamma("s", Const(1), Const(1))
		b.Latent("path", 3)
		b.NormalObserved("obs", "x", "path", "s")
		return nil
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if g.Dim() != 4 {
		t.Fatalf("Dim = %d, want 4", g.Dim())
	}
	names := g.ParamNames()
	if len(names) != 1 || names[0] != "s" {
		t.Fatalf("param names = %v, want [s] only", names)
	}

	// With path equal to the data and unit sigma the observation term is
	// three standard normal maxima.
	z := []float64{0, 1, 2, 3}
	want := distuv.Gamma{Alpha: 1, Beta: 1}.LogProb(1) + 0 // prior + log-Jacobian at z=0
	want += 3 * distuv.Normal{Mu: 0, Sigma: 1}.LogProb(0)
	got := g.LogProb(z)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProb = %v, want %v", got, want)
	}
}

// TestContainerSemantics covers the mutable container contract.
func TestContainerSemantics(t *testing.T) {
	s := NewInputSet()
	if err := s.bind("x", []float64{1, 2, 3}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	c, err := s.Get("x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Len() != 3 || c.Name() != "x" {
		t.Fatalf("container = %s/%d, want x/3", c.Name(), c.Len())
	}

	// In-place rebind preserves identity.
	backing := c.Get()
	if err := c.Set([]float64{4, 5, 6}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if backing[0] != 4 {
		t.Error("Set did not overwrite the backing storage in place")
	}

	if err := c.Set([]float64{1, 2}); !IsShapeMismatch(err) {
		t.Errorf("Set with wrong length: error = %v, want shape-mismatch", err)
	}

	if _, err := s.Get("missing"); !IsMissingInput(err) {
		t.Errorf("Get(missing): error = %v, want missing-input", err)
	}

	if _, err := s.Scalar("x"); !IsInvalidParameter(err) {
		t.Errorf("Scalar on vector: error = %v, want invalid-parameter", err)
	}

	if err := s.bind("n", 5); err != nil {
		t.Fatalf("bind scalar: %v", err)
	}
	v, err := s.Scalar("n")
	if err != nil || v != 5 {
		t.Errorf("Scalar(n) = %v, %v, want 5", v, err)
	}
}
