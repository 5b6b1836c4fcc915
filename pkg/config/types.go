package config

import (
	"github.com/oufit/oufit/pkg/telemetry"
)

// Config is the top-level oufit configuration, typically loaded from a
// YAML file and merged over Default().
type Config struct {
	// Sampler holds the default sampling settings applied to every fit
	// unless overridden on the command line.
	Sampler SamplerConfig `yaml:"sampler" validate:"required"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Store configures run persistence.
	Store StoreConfig `yaml:"store"`
}

// SamplerConfig holds the default MCMC settings.
type SamplerConfig struct {
	// Draws is the number of posterior draws kept per chain.
	Draws int `yaml:"draws" validate:"gt=0"`

	// WarmUp is the number of adaptation iterations discarded before
	// draws are kept.
	WarmUp int `yaml:"warm_up" validate:"gte=0"`

	// Chains is the number of independent chains.
	Chains int `yaml:"chains" validate:"gt=0"`

	// TargetAccept is the acceptance rate the proposal adapts toward
	// during warm-up.
	TargetAccept float64 `yaml:"target_accept" validate:"gt=0,lt=1"`

	// Seed seeds the sampler's random source. Zero means derive a seed
	// from the clock.
	Seed uint64 `yaml:"seed"`
}

// TelemetryConfig is the YAML-facing subset of the telemetry settings.
type TelemetryConfig struct {
	// LogLevel sets the minimum log level (trace, debug, info, warn,
	// error, fatal).
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error fatal"`

	// LogFormat selects console or json output.
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	// MetricsEnabled controls the Prometheus endpoint.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// MetricsListen is the metrics HTTP listen address.
	MetricsListen string `yaml:"metrics_listen" validate:"required_if=MetricsEnabled true"`

	// TracingEnabled controls trace export.
	TracingEnabled bool `yaml:"tracing_enabled"`

	// TracingExporter selects the trace exporter (stdout, otlp, none).
	TracingExporter string `yaml:"tracing_exporter" validate:"omitempty,oneof=stdout otlp none"`

	// TracingEndpoint is the OTLP collector endpoint.
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

// StoreConfig configures the sqlite run store.
type StoreConfig struct {
	// Path is the sqlite database file. Empty disables persistence.
	Path string `yaml:"path"`
}

// TelemetryConfig converts the YAML settings into the full telemetry
// configuration, filling the fields the file does not expose from the
// telemetry defaults.
func (c *Config) TelemetryConfig(version string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version
	tc.Logging.Level = c.Telemetry.LogLevel
	tc.Logging.Format = c.Telemetry.LogFormat
	tc.Metrics.Enabled = c.Telemetry.MetricsEnabled
	if c.Telemetry.MetricsListen != "" {
		tc.Metrics.ListenAddress = c.Telemetry.MetricsListen
	}
	tc.Tracing.Enabled = c.Telemetry.TracingEnabled
	if c.Telemetry.TracingExporter != "" {
		tc.Tracing.Exporter = c.Telemetry.TracingExporter
	}
	tc.Tracing.Endpoint = c.Telemetry.TracingEndpoint
	return tc
}
