package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var (
	validProviders     = []string{"gemini", "claude", "ollama", "local"}
	validExecutorModes = []string{"dryrun", "http"}
	validBinds         = []string{"loopback", "lan", "custom"}
	validLogLevels     = []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	validConsoleStyles = []string{"pretty", "json"}
)

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Provider validation
	issues = append(issues, validateProvider("provider", cfg.Provider)...)
	for i, fb := range cfg.Provider.Fallbacks {
		path := fmt.Sprintf("provider.fallbacks[%d]", i)
		if len(fb.Fallbacks) > 0 {
			issues = append(issues, ValidationIssue{
				Path:    path + ".fallbacks",
				Message: "fallbacks cannot be nested",
			})
		}
		issues = append(issues, validateProvider(path, fb)...)
	}

	// Executor validation
	if cfg.Executor.Mode != "" && !slices.Contains(validExecutorModes, cfg.Executor.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "executor.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validExecutorModes, cfg.Executor.Mode),
		})
	}
	if cfg.Executor.Mode == "http" && cfg.Executor.BaseURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "executor.baseUrl",
			Message: "required when executor.mode is http",
		})
	}
	if cfg.Executor.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "executor.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Executor.TimeoutSeconds),
		})
	}

	// Agent validation
	if cfg.Agent.MaxToolRounds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.maxToolRounds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Agent.MaxToolRounds),
		})
	}
	if cfg.Agent.Retry.MaxAttempts < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.retry.maxAttempts",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Agent.Retry.MaxAttempts),
		})
	}
	if r := cfg.Agent.Retry; r.MaxBackoffMs > 0 && r.InitialBackoffMs > r.MaxBackoffMs {
		issues = append(issues, ValidationIssue{
			Path:    "agent.retry.initialBackoffMs",
			Message: fmt.Sprintf("must not exceed maxBackoffMs (%d), got %d", r.MaxBackoffMs, r.InitialBackoffMs),
		})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.tls",
			Message: "certPath and keyPath are required when TLS is enabled",
		})
	}

	// Logging validation
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}

// validateProvider checks one provider entry. A missing API key is not an
// issue: the provider then reports itself unavailable at runtime.
func validateProvider(path string, p ProviderConfig) []ValidationIssue {
	var issues []ValidationIssue

	if !slices.Contains(validProviders, p.Type) {
		issues = append(issues, ValidationIssue{
			Path:    path + ".type",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, p.Type),
		})
	}
	if p.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    path + ".timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", p.TimeoutSeconds),
		})
	}
	if p.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    path + ".maxTokens",
			Message: fmt.Sprintf("must not be negative, got %d", p.MaxTokens),
		})
	}
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		issues = append(issues, ValidationIssue{
			Path:    path + ".temperature",
			Message: fmt.Sprintf("must be between 0 and 2, got %g", *p.Temperature),
		})
	}
	return issues
}
