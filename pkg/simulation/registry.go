package simulation

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages available samplers keyed by fe_type
type Registry struct {
	mu       sync.RWMutex
	samplers map[string]func() Sampler
}

// NewRegistry creates a new sampler registry
func NewRegistry() *Registry {
	return &Registry{
		samplers: make(map[string]func() Sampler),
	}
}

// Register adds a sampler to the registry
func (r *Registry) Register(name string, factory func() Sampler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.samplers[name]; exists {
		return fmt.Errorf("sampler %s already registered", name)
	}

	r.samplers[name] = factory
	return nil
}

// Get returns a new instance of the requested sampler
func (r *Registry) Get(name string) (Sampler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.samplers[name]
	if !exists {
		return nil, fmt.Errorf("sampler %s not found", name)
	}

	return factory(), nil
}

// List returns all registered sampler names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.samplers))
	for name := range r.samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global sampler registry
var DefaultRegistry = NewRegistry()
