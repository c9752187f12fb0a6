package notifier

import (
	"fmt"
	"sort"
	"sync"
)

// Registry fans trade events out to every configured notifier.
type Registry struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds n. Names must be unique.
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.notifiers {
		if existing.Name() == n.Name() {
			return fmt.Errorf("notifier %s already registered", n.Name())
		}
	}
	r.notifiers = append(r.notifiers, n)
	return nil
}

// Get returns the notifier registered as name.
func (r *Registry) Get(name string) (Notifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.notifiers {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// Len returns how many notifiers are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifiers)
}

// Names returns the registered notifier names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.notifiers))
	for i, n := range r.notifiers {
		names[i] = n.Name()
	}
	sort.Strings(names)
	return names
}

// NotifyAll sends event to every notifier concurrently and waits for all of
// them. The result maps each failing notifier's name to its error.
func (r *Registry) NotifyAll(event Event) map[string]error {
	r.mu.RLock()
	targets := append([]Notifier(nil), r.notifiers...)
	r.mu.RUnlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make(map[string]error)
	)
	for _, n := range targets {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			if err := n.Send(event); err != nil {
				mu.Lock()
				errs[n.Name()] = err
				mu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	return errs
}
