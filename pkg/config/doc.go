// Package config loads and validates the oufit YAML configuration.
//
// A configuration file supplies defaults for the sampler, telemetry and
// the run store; anything not set in the file comes from Default(), and
// command-line flags override both. Files are parsed with gopkg.in/yaml.v3
// and validated with go-playground/validator struct tags.
//
// Example file:
//
//	sampler:
//	  draws: 10000
//	  warm_up: 1000
//	  chains: 2
//	  target_accept: 0.8
//	telemetry:
//	  log_level: debug
//	  log_format: console
//	  metrics_enabled: true
//	  metrics_listen: ":9090"
//	store:
//	  path: oufit.db
package config
