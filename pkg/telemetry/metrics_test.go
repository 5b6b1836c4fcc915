package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestTelemetry(t *testing.T) *Telemetry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logging.Output = "stderr"
	cfg.Tracing.Enabled = false
	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("NewTelemetry failed: %v", err)
	}
	return tel
}

// TestRunMetricsRecordedOnce instruments one run the way the CLI does:
// the run context brackets the run while the engine's metrics hook
// reports the sampling outcome. Completion must be counted exactly once
// and the active-runs gauge must return to zero.
func TestRunMetricsRecordedOnce(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	runCtx := WithRunContext(ctx, "run-1", "ou_da")
	tel.Metrics.RecordRun("ou_da", "completed", 10*time.Millisecond)
	EndRunContext(runCtx, "run-1", "ou_da", 100, nil)

	if got := testutil.ToFloat64(tel.Metrics.runsStarted.WithLabelValues("ou_da")); got != 1 {
		t.Errorf("runs_started_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tel.Metrics.runsCompleted.WithLabelValues("ou_da", "completed")); got != 1 {
		t.Errorf("runs_completed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tel.Metrics.activeRuns); got != 0 {
		t.Errorf("active_runs = %v, want 0 after the run ended", got)
	}
}

// TestRunMetricsFailedRun mirrors the failure path.
func TestRunMetricsFailedRun(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	runCtx := WithRunContext(ctx, "run-2", "ou_ba")
	tel.Metrics.RecordRun("ou_ba", "failed", time.Millisecond)
	EndRunContext(runCtx, "run-2", "ou_ba", 0, context.DeadlineExceeded)

	if got := testutil.ToFloat64(tel.Metrics.runsCompleted.WithLabelValues("ou_ba", "failed")); got != 1 {
		t.Errorf("runs_completed_total{status=failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(tel.Metrics.activeRuns); got != 0 {
		t.Errorf("active_runs = %v, want 0 after the run ended", got)
	}
}

// TestDisabledMetricsNoOp checks the no-op instance tolerates all calls.
func TestDisabledMetricsNoOp(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	m.RecordRunStarted("ou_da")
	m.RecordRun("ou_da", "completed", time.Second)
	m.RecordRunEnded()
	m.RecordBuild("ou_da", time.Millisecond)
	m.RecordDraws("ou_da", 10)
	m.SetAcceptance("ou_da", 0.4)
	m.RecordError("shape_mismatch")
}
