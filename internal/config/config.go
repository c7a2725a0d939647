// Package config loads and validates wawa's YAML configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = "gemini"
	}
	if cfg.Executor.Mode == "" {
		cfg.Executor.Mode = "dryrun"
	}
	if cfg.Agent.MaxToolRounds == 0 {
		cfg.Agent.MaxToolRounds = 4
	}
	if cfg.Agent.Retry.MaxAttempts == 0 {
		cfg.Agent.Retry.MaxAttempts = 3
	}
	if cfg.Agent.Retry.InitialBackoffMs == 0 {
		cfg.Agent.Retry.InitialBackoffMs = 500
	}
	if cfg.Agent.Retry.MaxBackoffMs == 0 {
		cfg.Agent.Retry.MaxBackoffMs = 8000
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18790
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}
