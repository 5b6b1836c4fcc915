package engine

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oufit/oufit/pkg/sampler"
)

// Default sampling configuration, overridable per engine instance.
const (
	// DefaultDraws is the number of posterior draws kept per chain.
	DefaultDraws = 10000

	// DefaultTargetAccept is the acceptance rate warm-up adapts toward.
	DefaultTargetAccept = 0.8

	// DefaultWarmUp is the number of discarded adaptation iterations.
	DefaultWarmUp = 1000

	// DefaultChains is the number of independent chains.
	DefaultChains = 1
)

// Engine owns one model variant and its cached graph. The graph is built
// exactly once, on the first CacheModel or Run call; later runs only
// overwrite the data containers in place and sample again.
//
// An Engine is not safe for concurrent use: the containers it owns are
// unsynchronized, so concurrent Run calls must be serialized by the
// caller. Run blocks until sampling completes or ctx is cancelled.
type Engine struct {
	builder ModelBuilder
	smp     sampler.Sampler

	draws        int
	warmUp       int
	chains       int
	targetAccept float64
	seed         uint64

	inputs *InputSet
	graph  *Graph

	logger  zerolog.Logger
	metrics Metrics
}

// Metrics receives engine instrumentation. The telemetry package provides
// the prometheus-backed implementation; a nil Metrics disables
// instrumentation.
type Metrics interface {
	// RecordBuild records one graph build with its duration.
	RecordBuild(model string, d time.Duration)

	// RecordRun records one completed or failed run.
	RecordRun(model, status string, d time.Duration)

	// RecordDraws records the number of posterior draws produced.
	RecordDraws(model string, n int)

	// SetAcceptance records the post-warm-up acceptance rate.
	SetAcceptance(model string, rate float64)
}

// Option configures an Engine.
type Option func(*Engine)

// WithDraws sets the number of posterior draws per chain.
func WithDraws(n int) Option { return func(e *Engine) { e.draws = n } }

// WithWarmUp sets the number of warm-up iterations.
func WithWarmUp(n int) Option { return func(e *Engine) { e.warmUp = n } }

// WithChains sets the number of chains.
func WithChains(n int) Option { return func(e *Engine) { e.chains = n } }

// WithTargetAccept sets the target acceptance rate.
func WithTargetAccept(r float64) Option { return func(e *Engine) { e.targetAccept = r } }

// WithSeed fixes the sampler seed for reproducible runs.
func WithSeed(s uint64) Option { return func(e *Engine) { e.seed = s } }

// WithSampler replaces the stock Metropolis-Hastings sampler.
func WithSampler(s sampler.Sampler) Option { return func(e *Engine) { e.smp = s } }

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics attaches engine instrumentation.
func WithMetrics(m Metrics) Option { return func(e *Engine) { e.metrics = m } }

// New creates an engine for the given variant. A nil builder produces the
// base engine, whose builds fail with a not-implemented error; it exists
// so the engine behavior is testable independent of any variant.
func New(builder ModelBuilder, opts ...Option) *Engine {
	e := &Engine{
		builder:      builder,
		smp:          sampler.NewMetropolisHastings(),
		draws:        DefaultDraws,
		warmUp:       DefaultWarmUp,
		chains:       DefaultChains,
		targetAccept: DefaultTargetAccept,
		seed:         uint64(time.Now().UnixNano()),
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelName returns the variant name, or "base" for the base engine.
func (e *Engine) ModelName() string {
	if e.builder == nil {
		return "base"
	}
	return e.builder.Name()
}

// Graph returns the cached graph, or nil before the first build.
func (e *Engine) Graph() *Graph { return e.graph }

// CreateModel builds a graph from the engine's variant against the given
// input set. On the base engine it fails with a not-implemented error.
// Most callers never invoke this directly; CacheModel and Run do.
func (e *Engine) CreateModel(in *InputSet) (*Graph, error) {
	if e.builder == nil {
		return nil, NewNotImplementedError("create_model must be supplied by a model variant")
	}
	for _, name := range e.builder.RequiredInputs() {
		if !in.Has(name) {
			return nil, NewMissingInputError(name)
		}
	}
	return Build(in, func(b *GraphBuilder) error {
		return e.builder.BuildModel(b, in)
	})
}

// CacheModel wraps each named input in a mutable data container and
// builds the model graph against them, caching both. Calling it again
// rebuilds the graph and replaces the containers; callers normally call
// it once, or not at all and let Run build lazily.
func (e *Engine) CacheModel(inputs Inputs) error {
	in := NewInputSet()
	for _, name := range sortedNames(inputs) {
		if err := in.bind(name, inputs[name]); err != nil {
			return err
		}
	}

	start := time.Now()
	g, err := e.CreateModel(in)
	if err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.RecordBuild(e.ModelName(), time.Since(start))
	}
	e.logger.Debug().
		Str("model", e.ModelName()).
		Int("dim", g.Dim()).
		Str("marker", g.Marker()).
		Dur("elapsed", time.Since(start)).
		Msg("model graph built")

	e.inputs = in
	e.graph = g
	return nil
}

// RunOptions controls a single Run call.
type RunOptions struct {
	// Reinit resets the sampler's adaptation state before sampling.
	// The zero RunOptions means reinit, matching the default behavior of
	// a fresh run; pass KeepTuning to carry warm state over.
	Reinit bool
}

// KeepTuning is the RunOptions for continuing from the previous run's
// tuned sampler state.
var KeepTuning = RunOptions{Reinit: false}

// Run performs one inference run. If no graph is cached yet it builds one
// from inputs; otherwise it overwrites the cached containers' values in
// place, which is what lets repeated runs on new data skip graph
// reconstruction. It then hands the graph to the sampler and returns the
// posterior trace unchanged.
//
// Rebinding a value whose shape differs from the cached container fails
// with a shape-mismatch error and no trace. Inputs not seen at build time
// fail with a missing-input error.
func (e *Engine) Run(ctx context.Context, inputs Inputs, opts ...RunOptions) (*sampler.Trace, error) {
	opt := RunOptions{Reinit: true}
	if len(opts) > 0 {
		opt = opts[0]
	}

	if e.graph == nil {
		if err := e.CacheModel(inputs); err != nil {
			return nil, err
		}
	} else {
		for _, name := range sortedNames(inputs) {
			if err := e.inputs.rebind(name, inputs[name]); err != nil {
				return nil, err
			}
		}
	}

	cfg := sampler.Config{
		Draws:        e.draws,
		WarmUp:       e.warmUp,
		Chains:       e.chains,
		TargetAccept: e.targetAccept,
		Seed:         e.seed,
		Reinit:       opt.Reinit,
	}

	start := time.Now()
	e.logger.Info().
		Str("model", e.ModelName()).
		Int("draws", cfg.Draws).
		Int("chains", cfg.Chains).
		Float64("target_accept", cfg.TargetAccept).
		Bool("reinit", opt.Reinit).
		Msg("sampling started")

	trace, err := e.smp.Sample(ctx, e.graph, cfg)
	elapsed := time.Since(start)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordRun(e.ModelName(), "failed", elapsed)
		}
		e.logger.Error().Err(err).Str("model", e.ModelName()).Msg("sampling failed")
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordRun(e.ModelName(), "completed", elapsed)
		e.metrics.RecordDraws(e.ModelName(), trace.Len())
		e.metrics.SetAcceptance(e.ModelName(), trace.Acceptance)
	}
	e.logger.Info().
		Str("model", e.ModelName()).
		Int("draws", trace.Len()).
		Float64("acceptance", trace.Acceptance).
		Dur("elapsed", elapsed).
		Msg("sampling completed")

	return trace, nil
}

// sortedNames returns the input names in deterministic order so container
// creation and rebinding do not depend on map iteration.
func sortedNames(inputs Inputs) []string {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
