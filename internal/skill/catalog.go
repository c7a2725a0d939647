package skill

import (
	"fmt"
	"sync"

	"github.com/soyeahso/wawa/internal/logging"
)

// Catalog holds the registered skills. Registering a name that already exists
// replaces the earlier definition in place.
type Catalog struct {
	mu     sync.RWMutex
	skills map[string]Definition
	order  []string
	log    *logging.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(log *logging.Logger) *Catalog {
	if log == nil {
		log = logging.Nop()
	}
	return &Catalog{
		skills: make(map[string]Definition),
		log:    log.Sub("skill.catalog"),
	}
}

// Register adds def, replacing any skill with the same name.
func (c *Catalog) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.skills[def.Name]; ok {
		c.log.Debug().
			Str("skill", def.Name).
			Str("previousModule", prev.Module).
			Str("module", def.Module).
			Msg("overriding skill definition")
	} else {
		c.order = append(c.order, def.Name)
	}
	c.skills[def.Name] = def.Clone()
	return nil
}

// RegisterAll registers defs in order, stopping at the first invalid one.
func (c *Catalog) RegisterAll(defs []Definition) error {
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			return fmt.Errorf("register %q: %w", def.Name, err)
		}
	}
	return nil
}

// Get returns the skill with the given name.
func (c *Catalog) Get(name string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.skills[name]
	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}

// ListByModule returns the skills of module followed by every system skill.
func (c *Catalog) ListByModule(module string) []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var own, system []Definition
	for _, name := range c.order {
		def := c.skills[name]
		switch {
		case def.Module == SystemModule:
			system = append(system, def.Clone())
		case def.Module == module:
			own = append(own, def.Clone())
		}
	}
	return append(own, system...)
}

// ListModules returns the distinct modules in first-registration order.
func (c *Catalog) ListModules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, name := range c.order {
		m := c.skills[name].Module
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// ListAll returns every skill in registration order.
func (c *Catalog) ListAll() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Definition, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.skills[name].Clone())
	}
	return out
}

// Len returns the number of registered skills.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
