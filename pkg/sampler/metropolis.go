package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/samplemv"
)

// MetropolisHastings samples with gonum's Metropolis-Hastings kernel and a
// spherical Gaussian random-walk proposal. During warm-up the proposal
// scale is adapted in windows toward Config.TargetAccept with a
// Robbins-Monro step on the log scale; after warm-up the scale is frozen
// so the kept draws come from a valid, fixed-kernel chain.
//
// A MetropolisHastings instance retains its tuned scale and each chain's
// final position between runs. A run with Config.Reinit true, or with a
// different dimension or chain count, discards that state and adapts from
// scratch. Instances are not safe for concurrent use.
type MetropolisHastings struct {
	// InitialScale is the proposal standard deviation warm-up starts
	// from. Zero means 0.5.
	InitialScale float64

	// Window is the number of iterations per adaptation window. Zero
	// means 100.
	Window int

	scale  float64
	last   [][]float64
	dim    int
	chains int
}

// NewMetropolisHastings returns a sampler with default tuning.
func NewMetropolisHastings() *MetropolisHastings {
	return &MetropolisHastings{}
}

// Sample draws from target and returns the trace. It blocks until done or
// ctx is cancelled; cancellation returns no trace.
func (s *MetropolisHastings) Sample(ctx context.Context, target Target, cfg Config) (*Trace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sampler config: %w", err)
	}
	dim := target.Dim()
	if dim <= 0 {
		return nil, fmt.Errorf("target has dimension %d", dim)
	}
	if len(cfg.Initial) != 0 && len(cfg.Initial) != dim {
		return nil, fmt.Errorf("initial point has length %d, target has dimension %d", len(cfg.Initial), dim)
	}

	warm := s.scale > 0 && !cfg.Reinit && s.dim == dim && s.chains == cfg.Chains
	if !warm {
		s.scale = s.InitialScale
		if s.scale <= 0 {
			s.scale = 0.5
		}
		s.last = make([][]float64, cfg.Chains)
		s.dim = dim
		s.chains = cfg.Chains
	}

	names, record := recorder(target, dim)
	trace := &Trace{Names: names, Chains: make([]*mat.Dense, cfg.Chains)}

	var accSum float64
	for c := 0; c < cfg.Chains; c++ {
		src := rand.NewPCG(cfg.Seed+uint64(c), uint64(dim))

		x := make([]float64, dim)
		switch {
		case s.last[c] != nil:
			copy(x, s.last[c])
		case len(cfg.Initial) == dim:
			copy(x, cfg.Initial)
		}

		if !warm {
			var err error
			x, err = s.adapt(ctx, target, x, cfg, src)
			if err != nil {
				return nil, err
			}
		}

		draws, acc, err := s.drawChain(ctx, target, x, cfg.Draws, src)
		if err != nil {
			return nil, err
		}
		accSum += acc
		s.last[c] = draws.RawRowView(cfg.Draws - 1)

		trace.Chains[c] = recordChain(draws, record, len(names))
	}
	trace.Acceptance = accSum / float64(cfg.Chains)
	return trace, nil
}

// adapt runs the warm-up windows, tuning s.scale, and returns the chain's
// position after warm-up.
func (s *MetropolisHastings) adapt(ctx context.Context, target Target, x []float64, cfg Config, src rand.Source) ([]float64, error) {
	window := s.Window
	if window <= 0 {
		window = 100
	}
	windows := cfg.WarmUp / window
	if windows == 0 && cfg.WarmUp > 0 {
		windows = 1
	}

	for w := 1; w <= windows; w++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, acc, err := s.runBatch(target, x, window, src)
		if err != nil {
			return nil, err
		}
		// Robbins-Monro on the log scale with a decaying step.
		s.scale *= math.Exp((acc - cfg.TargetAccept) / math.Sqrt(float64(w)))
		x = batch.RawRowView(window - 1)
	}
	return x, nil
}

// drawChain produces the kept draws in adaptation-free mode.
func (s *MetropolisHastings) drawChain(ctx context.Context, target Target, x []float64, draws int, src rand.Source) (*mat.Dense, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.runBatch(target, x, draws, src)
}

// runBatch runs one fixed-scale MH batch from x and returns the draws and
// the observed acceptance rate. Rejections show up as consecutive
// identical rows.
func (s *MetropolisHastings) runBatch(target Target, x []float64, n int, src rand.Source) (*mat.Dense, float64, error) {
	sigma := mat.NewSymDense(len(x), nil)
	for i := range x {
		sigma.SetSym(i, i, s.scale*s.scale)
	}
	prop, ok := samplemv.NewProposalNormal(sigma, src)
	if !ok {
		return nil, 0, fmt.Errorf("building proposal: covariance not positive definite")
	}

	mh := samplemv.MetropolisHastingser{
		Initial:  x,
		Target:   target,
		Proposal: prop,
		Src:      src,
	}
	batch := mat.NewDense(n, len(x), nil)
	mh.Sample(batch)

	accepted := 0
	prev := x
	for i := 0; i < n; i++ {
		row := batch.RawRowView(i)
		if !floats.Equal(row, prev) {
			accepted++
		}
		prev = row
	}
	return batch, float64(accepted) / float64(n), nil
}

// recorder resolves the target's trace mapping, falling back to identity
// columns named x0..x(d-1).
func recorder(target Target, dim int) ([]string, func([]float64) []float64) {
	if r, ok := target.(Recorder); ok {
		return r.ParamNames(), r.Record
	}
	names := make([]string, dim)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names, func(x []float64) []float64 { return x }
}

// recordChain maps every raw draw through record into a fresh matrix.
func recordChain(draws *mat.Dense, record func([]float64) []float64, cols int) *mat.Dense {
	n, _ := draws.Dims()
	out := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		out.SetRow(i, record(draws.RawRowView(i)))
	}
	return out
}
