package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the inference engine. It
// implements the engine's Metrics interface; pass it to the engine via
// WithMetrics.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Model graph metrics
	modelBuilds   *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec

	// Sampling metrics
	drawsTotal     *prometheus.CounterVec
	acceptanceRate *prometheus.GaugeVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	// System metrics
	activeRuns prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Run metrics
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of inference runs started",
			},
			[]string{"model"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of inference runs completed",
			},
			[]string{"model", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of inference runs in seconds",
				Buckets:   buckets,
			},
			[]string{"model", "status"},
		),

		// Model graph metrics
		modelBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_builds_total",
				Help:      "Total number of model graph builds",
			},
			[]string{"model"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_build_duration_seconds",
				Help:      "Duration of model graph construction in seconds",
				Buckets:   buckets,
			},
			[]string{"model"},
		),

		// Sampling metrics
		drawsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posterior_draws_total",
				Help:      "Total number of posterior draws produced",
			},
			[]string{"model"},
		),
		acceptanceRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "acceptance_rate",
				Help:      "Acceptance rate of the most recent run",
			},
			[]string{"model"},
		),

		// Error metrics
		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by kind",
			},
			[]string{"kind"},
		),

		// System metrics
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "Current number of active inference runs",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.modelBuilds,
		m.buildDuration,
		m.drawsTotal,
		m.acceptanceRate,
		m.errorsByKind,
		m.activeRuns,
	)

	return m, nil
}

// Run Metrics

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted(model string) {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(model).Inc()
	m.activeRuns.Inc()
}

// RecordRun records a finished run with its status and duration. The
// active-runs gauge is owned by RecordRunStarted/RecordRunEnded, which
// bracket the whole run rather than just the sampling.
func (m *Metrics) RecordRun(model, status string, d time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(model, status).Inc()
	m.runDuration.WithLabelValues(model, status).Observe(d.Seconds())
}

// RecordRunEnded decrements the active-runs gauge.
func (m *Metrics) RecordRunEnded() {
	if m.activeRuns == nil {
		return
	}
	m.activeRuns.Dec()
}

// Model Graph Metrics

// RecordBuild records one model graph build with its duration.
func (m *Metrics) RecordBuild(model string, d time.Duration) {
	if m.modelBuilds == nil {
		return
	}
	m.modelBuilds.WithLabelValues(model).Inc()
	m.buildDuration.WithLabelValues(model).Observe(d.Seconds())
}

// Sampling Metrics

// RecordDraws records the number of posterior draws produced by a run.
func (m *Metrics) RecordDraws(model string, n int) {
	if m.drawsTotal == nil {
		return
	}
	m.drawsTotal.WithLabelValues(model).Add(float64(n))
}

// SetAcceptance records the acceptance rate of the most recent run.
func (m *Metrics) SetAcceptance(model string, rate float64) {
	if m.acceptanceRate == nil {
		return
	}
	m.acceptanceRate.WithLabelValues(model).Set(rate)
}

// Error Metrics

// RecordError records an error by kind.
func (m *Metrics) RecordError(kind string) {
	if m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
