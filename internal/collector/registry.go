package collector

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry resolves configured collector names to implementations.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Collector
}

// NewRegistry returns a registry holding cs.
func NewRegistry(cs ...Collector) (*Registry, error) {
	r := &Registry{byName: make(map[string]Collector, len(cs))}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds c under its lower-cased name. Names must be unique.
func (r *Registry) Register(c Collector) error {
	name := strings.ToLower(c.Name())
	if name == "" {
		return fmt.Errorf("collector: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("collector: %q already registered", name)
	}
	r.byName[name] = c
	return nil
}

// Lookup returns the collector for name, case-insensitively. The error
// lists what is available.
func (r *Registry) Lookup(name string) (Collector, error) {
	r.mu.RLock()
	c, ok := r.byName[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("collector: unknown %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return c, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
