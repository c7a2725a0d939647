package config

import "time"

// Config is the root configuration for wawa.
type Config struct {
	Provider ProviderConfig `yaml:"provider,omitempty"`
	Skills   SkillsConfig   `yaml:"skills,omitempty"`
	Executor ExecutorConfig `yaml:"executor,omitempty"`
	Agent    AgentConfig    `yaml:"agent,omitempty"`
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	User     UserConfig     `yaml:"user,omitempty"`
}

// ProviderConfig selects the language-model backend.
type ProviderConfig struct {
	Type            string           `yaml:"type,omitempty"` // "gemini" | "claude" | "ollama" | "local"
	Model           string           `yaml:"model,omitempty"`
	APIKey          string           `yaml:"apiKey,omitempty"`
	BaseURL         string           `yaml:"baseUrl,omitempty"`
	TimeoutSeconds  int              `yaml:"timeoutSeconds,omitempty"`
	MaxTokens       int              `yaml:"maxTokens,omitempty"`
	Temperature     *float64         `yaml:"temperature,omitempty"`
	DisableThinking *bool            `yaml:"disableThinking,omitempty"`
	Fallbacks       []ProviderConfig `yaml:"fallbacks,omitempty"` // tried in order when the primary fails retryably
}

// Timeout returns TimeoutSeconds as a duration; zero means the backend default.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// SkillsConfig controls which skills are offered to the model.
type SkillsConfig struct {
	Builtin       *bool    `yaml:"builtin,omitempty"` // defaults to true
	Files         []string `yaml:"files,omitempty"`   // YAML or TOML catalog files
	DefaultModule string   `yaml:"defaultModule,omitempty"`
}

// BuiltinEnabled reports whether the built-in skill set is registered.
func (s SkillsConfig) BuiltinEnabled() bool {
	return s.Builtin == nil || *s.Builtin
}

// ExecutorConfig selects how confirmed skills are carried out.
type ExecutorConfig struct {
	Mode           string `yaml:"mode,omitempty"` // "dryrun" | "http"
	BaseURL        string `yaml:"baseUrl,omitempty"`
	Token          string `yaml:"token,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// Timeout returns TimeoutSeconds as a duration; zero means the executor default.
func (e ExecutorConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// AgentConfig tunes the turn runner.
type AgentConfig struct {
	MaxToolRounds int         `yaml:"maxToolRounds,omitempty"`
	Retry         RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig is the backoff policy for retryable provider failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"maxAttempts,omitempty"`
	InitialBackoffMs int `yaml:"initialBackoffMs,omitempty"`
	MaxBackoffMs     int `yaml:"maxBackoffMs,omitempty"`
}

// GatewayConfig controls the host-facing WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Token string `yaml:"token,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// StoreConfig locates the SQLite database. An empty path uses the data directory.
type StoreConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// UserConfig identifies the teacher on whose behalf skills run.
type UserConfig struct {
	TeacherID string `yaml:"teacherId,omitempty"`
	Name      string `yaml:"name,omitempty"`
	IsAdmin   bool   `yaml:"isAdmin,omitempty"`
}
