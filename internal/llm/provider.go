package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/wawa/internal/logging"
)

// Kind identifies a provider backend. The set is closed; adding a backend
// means adding a Kind and a case to every switch over it.
type Kind string

const (
	KindGemini Kind = "gemini"
	KindClaude Kind = "claude"
	KindOllama Kind = "ollama"
	KindLocal  Kind = "local"
)

// Kinds lists every supported backend.
func Kinds() []Kind {
	return []Kind{KindGemini, KindClaude, KindOllama, KindLocal}
}

// ParseKind converts a config string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGemini, KindClaude, KindOllama, KindLocal:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported provider type %q", s)
	}
}

// DefaultModel returns the model used when none is configured.
func (k Kind) DefaultModel() string {
	switch k {
	case KindGemini:
		return "gemini-2.5-flash"
	case KindClaude:
		return "claude-haiku-4-5-20251001"
	case KindOllama:
		return "llama3.1"
	case KindLocal:
		return "local"
	default:
		return ""
	}
}

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 1024
)

// Config selects and parameterizes a backend.
type Config struct {
	Kind    Kind
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// MaxTokens applies when a request does not set its own limit.
	MaxTokens int
	// DisableThinking controls the thinking budget of Gemini 2.5 models.
	// nil means disabled.
	DisableThinking *bool
	Temperature     *float64
}

// Provider is a tagged union over the supported backends. Exactly one backend
// field is set, matching kind.
type Provider struct {
	kind  Kind
	model string
	cfg   Config
	log   *logging.Logger

	gemini *geminiBackend
	claude *claudeBackend
	ollama *ollamaBackend
	local  *localBackend
}

// New builds a provider for cfg. An unknown Kind yields a provider that is
// never available and fails every Chat call.
func New(cfg Config, log *logging.Logger) *Provider {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Kind.DefaultModel()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	p := &Provider{
		kind:  cfg.Kind,
		model: cfg.Model,
		cfg:   cfg,
		log:   log.Sub("llm." + string(cfg.Kind)),
	}
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Kind {
	case KindGemini:
		p.gemini = newGeminiBackend(cfg, client)
	case KindClaude:
		p.claude = newClaudeBackend(cfg, client)
	case KindOllama:
		p.ollama = newOllamaBackend(cfg, client)
	case KindLocal:
		p.local = &localBackend{}
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string { return string(p.kind) }

// Kind returns the backend kind.
func (p *Provider) Kind() Kind { return p.kind }

// Model returns the default model of this provider.
func (p *Provider) Model() string { return p.model }

// IsAvailable reports whether Chat can be attempted at all. It never performs I/O.
func (p *Provider) IsAvailable() bool {
	switch p.kind {
	case KindGemini:
		return p.gemini.apiKey != ""
	case KindClaude:
		return p.claude.apiKey != ""
	case KindOllama:
		return p.ollama.baseURL != ""
	case KindLocal:
		return p.local.loaded()
	default:
		return false
	}
}

// LoadLocalModel installs the on-device generator for a local provider.
func (p *Provider) LoadLocalModel(gen LocalGenerator) error {
	if p.kind != KindLocal {
		return fmt.Errorf("provider %s does not run local models", p.kind)
	}
	p.local.load(gen)
	p.log.Info().Msg("local model loaded")
	return nil
}

// Chat sends one request and returns the normalized response.
func (p *Provider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !p.IsAvailable() {
		return nil, p.unavailable()
	}
	if req.Model == "" {
		req.Model = p.model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = p.cfg.MaxTokens
	}
	if req.Temperature == nil {
		req.Temperature = p.cfg.Temperature
	}

	start := time.Now()
	var (
		resp *ChatResponse
		err  error
	)
	switch p.kind {
	case KindGemini:
		resp, err = p.gemini.chat(ctx, req)
	case KindClaude:
		resp, err = p.claude.chat(ctx, req)
	case KindOllama:
		resp, err = p.ollama.chat(ctx, req)
	case KindLocal:
		resp, err = p.local.chat(ctx, req)
	default:
		return nil, &ProviderError{
			Provider: string(p.kind),
			Category: CategoryBadRequest,
			Message:  "unsupported provider type",
		}
	}
	if err != nil {
		p.log.Warn().Err(err).
			Str("model", req.Model).
			Str("category", string(CategoryOf(err))).
			Msg("chat request failed")
		return nil, err
	}

	resp.Duration = time.Since(start)
	if resp.Model == "" {
		resp.Model = req.Model
	}
	p.log.Debug().
		Str("model", resp.Model).
		Int("toolCalls", len(resp.ToolCalls)).
		Dur("duration", resp.Duration).
		Msg("chat complete")
	return resp, nil
}

func (p *Provider) unavailable() *ProviderError {
	switch p.kind {
	case KindGemini, KindClaude:
		return &ProviderError{
			Provider: p.Name(),
			Category: CategoryAuth,
			Message:  "API key is not configured",
		}
	case KindLocal:
		return &ProviderError{
			Provider: p.Name(),
			Category: CategoryUnavailable,
			Message:  "local model is not loaded",
		}
	default:
		return &ProviderError{
			Provider: p.Name(),
			Category: CategoryUnavailable,
			Message:  "provider is not configured",
		}
	}
}
