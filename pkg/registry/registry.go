// Package registry maps simulator backend names to connector factories, so that
// commands can pick a backend by name.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/bngenvs/pkg/ports"
)

// Factory builds a connector from backend-specific options.
type Factory func(opts map[string]any) (ports.Connector, error)

// Registry manages the available simulator backends.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a backend to the registry.
// If a backend with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// Connector looks up a backend by name and builds its connector.
// Returns an error if the backend is not found.
func (r *Registry) Connector(name string, opts map[string]any) (ports.Connector, error) {
	r.mu.RLock()
	fn, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("simulator backend not found: %s", name)
	}

	return fn(opts)
}

// Names lists the registered backends, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
