package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oufit/oufit/pkg/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oufit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Sampler.Draws != engine.DefaultDraws {
		t.Errorf("default draws = %d, want %d", cfg.Sampler.Draws, engine.DefaultDraws)
	}
	if cfg.Sampler.TargetAccept != engine.DefaultTargetAccept {
		t.Errorf("default target_accept = %v, want %v", cfg.Sampler.TargetAccept, engine.DefaultTargetAccept)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Sampler.Draws != engine.DefaultDraws {
		t.Errorf("draws = %d, want default %d", cfg.Sampler.Draws, engine.DefaultDraws)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
sampler:
  draws: 2000
  target_accept: 0.4
telemetry:
  log_level: debug
store:
  path: runs.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sampler.Draws != 2000 {
		t.Errorf("draws = %d, want 2000", cfg.Sampler.Draws)
	}
	if cfg.Sampler.TargetAccept != 0.4 {
		t.Errorf("target_accept = %v, want 0.4", cfg.Sampler.TargetAccept)
	}
	// Untouched fields keep their defaults.
	if cfg.Sampler.WarmUp != engine.DefaultWarmUp {
		t.Errorf("warm_up = %d, want default %d", cfg.Sampler.WarmUp, engine.DefaultWarmUp)
	}
	if cfg.Telemetry.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.Telemetry.LogLevel)
	}
	if cfg.Telemetry.LogFormat != "console" {
		t.Errorf("log_format = %q, want default console", cfg.Telemetry.LogFormat)
	}
	if cfg.Store.Path != "runs.db" {
		t.Errorf("store path = %q, want runs.db", cfg.Store.Path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "zero draws",
			content: `
sampler:
  draws: 0
`,
		},
		{
			name: "target accept out of range",
			content: `
sampler:
  target_accept: 1.5
`,
		},
		{
			name: "bad log level",
			content: `
telemetry:
  log_level: loud
`,
		},
		{
			name: "bad tracing exporter",
			content: `
telemetry:
  tracing_exporter: jaeger
`,
		},
		{
			name:    "malformed yaml",
			content: "sampler: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestTelemetryConfigConversion(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.LogLevel = "warn"
	cfg.Telemetry.MetricsEnabled = true
	cfg.Telemetry.MetricsListen = ":9191"
	cfg.Telemetry.TracingEnabled = true
	cfg.Telemetry.TracingExporter = "otlp"
	cfg.Telemetry.TracingEndpoint = "collector:4317"

	tc := cfg.TelemetryConfig("1.2.3")

	if tc.ServiceName != "oufit" {
		t.Errorf("service name = %q, want oufit", tc.ServiceName)
	}
	if tc.ServiceVersion != "1.2.3" {
		t.Errorf("service version = %q, want 1.2.3", tc.ServiceVersion)
	}
	if tc.Logging.Level != "warn" {
		t.Errorf("log level = %q, want warn", tc.Logging.Level)
	}
	if !tc.Metrics.Enabled || tc.Metrics.ListenAddress != ":9191" {
		t.Errorf("metrics = %+v, want enabled on :9191", tc.Metrics)
	}
	if tc.Tracing.Exporter != "otlp" || tc.Tracing.Endpoint != "collector:4317" {
		t.Errorf("tracing = %+v, want otlp to collector:4317", tc.Tracing)
	}
	if err := tc.Validate(); err != nil {
		t.Errorf("converted telemetry config invalid: %v", err)
	}
}
