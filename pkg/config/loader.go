package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/oufit/oufit/pkg/engine"
)

// Default returns the built-in configuration. Sampler defaults mirror the
// engine's own defaults so a missing config file changes nothing.
func Default() *Config {
	return &Config{
		Sampler: SamplerConfig{
			Draws:        engine.DefaultDraws,
			WarmUp:       engine.DefaultWarmUp,
			Chains:       engine.DefaultChains,
			TargetAccept: engine.DefaultTargetAccept,
		},
		Telemetry: TelemetryConfig{
			LogLevel:        "info",
			LogFormat:       "console",
			MetricsEnabled:  false,
			MetricsListen:   ":9090",
			TracingEnabled:  false,
			TracingExporter: "stdout",
		},
		Store: StoreConfig{
			Path: "",
		},
	}
}

// Load reads a YAML configuration file and merges it over Default().
// A missing file is not an error when path is empty; a named file must
// exist. The result is validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
