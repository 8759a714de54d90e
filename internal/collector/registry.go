package collector

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/newthinker/stockscreen/internal/core"
)

// Registry holds the collectors a fetch can be served by, keyed by provider
// name.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates a new collector registry
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
	}
}

// Register adds c, replacing any collector with the same name.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name()] = c
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// Resolve returns the collector serving provider or a core.ErrConfigInvalid
// error naming the registered ones.
func (r *Registry) Resolve(provider string) (Collector, error) {
	if c, ok := r.Get(provider); ok {
		return c, nil
	}
	return nil, core.WrapError(core.ErrConfigInvalid,
		fmt.Errorf("unknown collector %q, have [%s]", provider, strings.Join(r.Names(), ", ")))
}

// Names returns the registered provider names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
