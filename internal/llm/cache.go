package llm

import (
	"sync"

	"github.com/soyeahso/wawa/internal/logging"
)

type cacheKey struct {
	kind  Kind
	model string
}

// Cache keeps one Provider per (kind, model). The first Config seen for a key
// wins; later calls with a different API key reuse the cached instance until
// Clear is called.
type Cache struct {
	mu        sync.Mutex
	providers map[cacheKey]*Provider
	log       *logging.Logger
}

// NewCache creates an empty provider cache.
func NewCache(log *logging.Logger) *Cache {
	if log == nil {
		log = logging.Nop()
	}
	return &Cache{
		providers: make(map[cacheKey]*Provider),
		log:       log,
	}
}

// Get returns the cached provider for cfg, building it on first use.
func (c *Cache) Get(cfg Config) *Provider {
	model := cfg.Model
	if model == "" {
		model = cfg.Kind.DefaultModel()
	}
	key := cacheKey{kind: cfg.Kind, model: model}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.providers[key]; ok {
		return p
	}
	p := New(cfg, c.log)
	c.providers[key] = p
	c.log.Sub("llm.cache").Debug().
		Str("provider", string(cfg.Kind)).
		Str("model", model).
		Msg("created provider")
	return p
}

// Clear drops every cached provider.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers = make(map[cacheKey]*Provider)
}

// Len returns the number of cached providers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.providers)
}
