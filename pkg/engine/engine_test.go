package engine

import (
	"context"
	"math"
	"testing"

	"github.com/oufit/oufit/pkg/sampler"
)

// gaussianVariant is a minimal test variant: one scalar observed dataset
// under a Uniform-prior mean.
type gaussianVariant struct{}

func (gaussianVariant) Name() string { return "gaussian_test" }

func (gaussianVariant) RequiredInputs() []string { return []string{"x", "mu_bound"} }

func (gaussianVariant) BuildModel(b *GraphBuilder, in *InputSet) error {
	b.Uniform("mu", Const(-1), b.Input("mu_bound"))
	b.Deterministic("mu_sq", func(e *Env) float64 {
		m := e.Value("mu")
		return m * m
	})
	b.Likelihood("obs", func(e *Env) float64 {
		mu := e.Value("mu")
		ll := 0.0
		for _, v := range e.Data("x") {
			r := v - mu
			ll += -0.5 * r * r
		}
		return ll
	})
	return nil
}

// countingSampler records how it was invoked and returns a canned trace.
type countingSampler struct {
	calls   int
	lastCfg sampler.Config
	target  sampler.Target
}

func (s *countingSampler) Sample(_ context.Context, target sampler.Target, cfg sampler.Config) (*sampler.Trace, error) {
	s.calls++
	s.lastCfg = cfg
	s.target = target
	mh := sampler.NewMetropolisHastings()
	return mh.Sample(context.Background(), target, sampler.Config{
		Draws: 10, WarmUp: 10, Chains: 1, TargetAccept: 0.4, Seed: 1, Reinit: true,
	})
}

func testInputs() Inputs {
	return Inputs{
		"x":        []float64{0.1, -0.2, 0.3},
		"mu_bound": 1.0,
	}
}

// TestBaseEngineNotImplemented checks the base engine fails before any
// sampling happens.
func TestBaseEngineNotImplemented(t *testing.T) {
	smp := &countingSampler{}
	e := New(nil, WithSampler(smp))

	trace, err := e.Run(context.Background(), testInputs())
	if trace != nil {
		t.Fatal("base engine returned a trace")
	}
	if !IsNotImplemented(err) {
		t.Fatalf("error = %v, want not-implemented", err)
	}
	if smp.calls != 0 {
		t.Errorf("sampler was invoked %d times before the failure", smp.calls)
	}
}

// TestCacheModelMissingInput checks that absent required inputs fail the
// build and name the input.
func TestCacheModelMissingInput(t *testing.T) {
	e := New(gaussianVariant{})

	err := e.CacheModel(Inputs{"x": []float64{1, 2}})
	if !IsMissingInput(err) {
		t.Fatalf("error = %v, want missing-input", err)
	}
	var ie *InferenceError
	if !asTestInferenceError(err, &ie) || ie.Input != "mu_bound" {
		t.Errorf("error does not name the missing input: %v", err)
	}
}

// TestGraphReuseAcrossRuns checks the core caching property: a second Run
// with new same-shape data reuses the graph built by the first, observed
// through the build marker, while the rebound data changes the density.
func TestGraphReuseAcrossRuns(t *testing.T) {
	smp := &countingSampler{}
	e := New(gaussianVariant{}, WithSampler(smp))

	if _, err := e.Run(context.Background(), testInputs()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	marker := e.Graph().Marker()
	if marker == "" {
		t.Fatal("built graph has no marker")
	}
	dim := e.Graph().Dim()
	before := e.Graph().LogProb(make([]float64, dim))

	if _, err := e.Run(context.Background(), Inputs{"x": []float64{5, 5, 5}}); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if got := e.Graph().Marker(); got != marker {
		t.Errorf("graph was rebuilt: marker %s -> %s", marker, got)
	}
	if smp.calls != 2 {
		t.Errorf("sampler invoked %d times, want 2", smp.calls)
	}
	after := e.Graph().LogProb(make([]float64, dim))
	if before == after {
		t.Error("rebinding data did not change the posterior density")
	}
}

// TestRunShapeMismatch checks that rebinding data of a different length
// fails and returns no trace.
func TestRunShapeMismatch(t *testing.T) {
	e := New(gaussianVariant{}, WithSampler(&countingSampler{}))

	if _, err := e.Run(context.Background(), testInputs()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	trace, err := e.Run(context.Background(), Inputs{"x": []float64{1, 2, 3, 4}})
	if trace != nil {
		t.Fatal("shape-mismatched run returned a trace")
	}
	if !IsShapeMismatch(err) {
		t.Fatalf("error = %v, want shape-mismatch", err)
	}
}

// TestRunUnknownInput checks that a name never bound at build time is
// rejected on rebind.
func TestRunUnknownInput(t *testing.T) {
	e := New(gaussianVariant{}, WithSampler(&countingSampler{}))

	if _, err := e.Run(context.Background(), testInputs()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := e.Run(context.Background(), Inputs{"y": []float64{1, 2, 3}}); !IsMissingInput(err) {
		t.Fatalf("error = %v, want missing-input", err)
	}
}

// TestRunForwardsTuning checks engine configuration reaches the sampler.
func TestRunForwardsTuning(t *testing.T) {
	smp := &countingSampler{}
	e := New(gaussianVariant{},
		WithSampler(smp),
		WithDraws(123),
		WithWarmUp(45),
		WithChains(2),
		WithTargetAccept(0.6),
		WithSeed(7),
	)

	if _, err := e.Run(context.Background(), testInputs()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	cfg := smp.lastCfg
	if cfg.Draws != 123 || cfg.WarmUp != 45 || cfg.Chains != 2 || cfg.TargetAccept != 0.6 || cfg.Seed != 7 {
		t.Errorf("sampler config = %+v, want engine settings", cfg)
	}
	if !cfg.Reinit {
		t.Error("default run did not request reinit")
	}

	if _, err := e.Run(context.Background(), testInputs(), KeepTuning); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if smp.lastCfg.Reinit {
		t.Error("KeepTuning run requested reinit")
	}
}

// TestHyperparameterRebind checks that input-backed prior hyperparameters
// are resolved through the containers, so rebinding them changes the
// density without a rebuild.
func TestHyperparameterRebind(t *testing.T) {
	e := New(gaussianVariant{}, WithSampler(&countingSampler{}))
	if _, err := e.Run(context.Background(), testInputs()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	marker := e.Graph().Marker()
	z := make([]float64, e.Graph().Dim())
	before := e.Graph().LogProb(z)

	if _, err := e.Run(context.Background(), Inputs{"mu_bound": 3.0}); err != nil {
		t.Fatalf("rebind run failed: %v", err)
	}
	if e.Graph().Marker() != marker {
		t.Fatal("hyperparameter rebind rebuilt the graph")
	}
	after := e.Graph().LogProb(z)
	if before == after {
		t.Error("rebinding mu_bound did not change the density")
	}
}

// TestGraphLogProbOutOfSupport checks invalid regions yield -Inf rather
// than errors, leaving enforcement to the priors.
func TestGraphLogProbOutOfSupport(t *testing.T) {
	e := New(gaussianVariant{})
	if err := e.CacheModel(testInputs()); err != nil {
		t.Fatalf("CacheModel failed: %v", err)
	}
	g := e.Graph()

	// The interval transform maps every finite z inside the support, so
	// the density is finite there.
	if lp := g.LogProb([]float64{2.5}); math.IsInf(lp, -1) || math.IsNaN(lp) {
		t.Errorf("in-support density = %v, want finite", lp)
	}
}

// TestRecordIncludesDeterministics checks trace rows carry deterministic
// nodes alongside free parameters.
func TestRecordIncludesDeterministics(t *testing.T) {
	e := New(gaussianVariant{})
	if err := e.CacheModel(testInputs()); err != nil {
		t.Fatalf("CacheModel failed: %v", err)
	}
	g := e.Graph()

	names := g.ParamNames()
	if len(names) != 2 || names[0] != "mu" || names[1] != "mu_sq" {
		t.Fatalf("param names = %v, want [mu mu_sq]", names)
	}
	row := g.Record([]float64{0.3})
	if len(row) != 2 {
		t.Fatalf("recorded row has %d columns, want 2", len(row))
	}
	if math.Abs(row[1]-row[0]*row[0]) > 1e-12 {
		t.Errorf("mu_sq = %v, want mu^2 = %v", row[1], row[0]*row[0])
	}
}

// asTestInferenceError unwraps an InferenceError for assertions.
func asTestInferenceError(err error, target **InferenceError) bool {
	ie, ok := err.(*InferenceError)
	if ok {
		*target = ie
	}
	return ok
}
