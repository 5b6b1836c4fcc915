// Package telemetry provides observability instrumentation for the
// inference engine.
//
// The telemetry package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified system
// for monitoring and debugging inference runs.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for operational insights
//  4. Event Publishing - Async event system for audit and notifications
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "oufit"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	// Start metrics server
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("engine")
//	logger = logger.WithRunID("run-123").WithModel("ou_da")
//	logger.Info("Starting inference run")
//	logger.WithError(err).Error("Sampling failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Tracing provides visibility into run flow and performance:
//
//	ctx, span := tel.Tracer.Start(ctx, "operation.name")
//	defer span.End()
//
//	// Add attributes
//	span.SetAttributes(
//	    telemetry.AttrModelName.String("ou_da"),
//	    telemetry.AttrDraws.Int(10000),
//	)
//
//	// Record errors
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development)
//
// # Metrics
//
// Prometheus metrics track inference behavior and performance:
//
//	// Record run execution
//	tel.Metrics.RecordRunStarted("ou_da")
//	tel.Metrics.RecordRun("ou_da", "completed", duration)
//
//	// Record sampling output
//	tel.Metrics.RecordDraws("ou_da", 10000)
//	tel.Metrics.SetAcceptance("ou_da", 0.41)
//
// The Metrics type satisfies the engine's instrumentation interface, so a
// single instance serves both the engine and the HTTP endpoint. Metrics
// are exposed via HTTP at /metrics (default: :9090/metrics).
//
// # Event Publishing
//
// The event system provides async publishing with buffering and filtering:
//
//	// Publish events
//	tel.Events.PublishRunStarted(runID, model)
//	tel.Events.PublishDataChanged(path)
//
//	// Subscribe to events
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("Event: %s - %s\n", event.Type, event.Message)
//	}, telemetry.FilterByLevel("warning"))
//
// Event filters: FilterByLevel, FilterByType, FilterByRunID, FilterByModel
//
// # Context Helpers
//
// High-level helpers simplify common instrumentation patterns:
//
//	// Instrument an operation
//	ic := telemetry.StartOperation(ctx, "trace.summarize")
//	defer ic.End(err)
//
//	// Run context
//	ctx = telemetry.WithRunContext(ctx, runID, model)
//	defer telemetry.EndRunContext(ctx, runID, model, draws, err)
//
//	// Model build
//	err := telemetry.RecordBuildOperation(ctx, model, func() error {
//	    return eng.CacheModel(inputs)
//	})
//
// # Configuration
//
// The package provides pre-configured setups for different environments:
//
//	// Development (verbose logging, stdout traces, full sampling)
//	cfg := telemetry.DevelopmentConfig()
//
//	// Production (JSON logs, OTLP traces, 10% sampling)
//	cfg := telemetry.ProductionConfig()
//
// # Common Metrics
//
// Key metrics exposed:
//
//   - oufit_runs_started_total{model}
//   - oufit_runs_completed_total{model,status}
//   - oufit_run_duration_seconds{model,status}
//   - oufit_model_builds_total{model}
//   - oufit_model_build_duration_seconds{model}
//   - oufit_posterior_draws_total{model}
//   - oufit_acceptance_rate{model}
//   - oufit_errors_total{kind}
//   - oufit_active_runs
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending data:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("Telemetry shutdown error: %v", err)
//	}
package telemetry
