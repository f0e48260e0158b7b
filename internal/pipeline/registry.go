package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps backend names to backends.
type Registry struct {
	backends sync.Map
}

// NewRegistry creates an empty backend registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a backend, replacing any backend of the same name
func (r *Registry) Register(b Backend) error {
	if b == nil || b.Name() == "" {
		return fmt.Errorf("backend name cannot be empty")
	}
	r.backends.Store(b.Name(), b)
	return nil
}

// Unregister removes a backend
func (r *Registry) Unregister(name string) {
	r.backends.Delete(name)
}

// Get retrieves a backend by name
func (r *Registry) Get(name string) (Backend, bool) {
	val, ok := r.backends.Load(name)
	if !ok {
		return nil, false
	}
	return val.(Backend), true
}

// Lookup is Get with an error for unknown names
func (r *Registry) Lookup(name string) (Backend, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, name, r.Names())
	}
	return b, nil
}

// Names returns the registered backend names in sorted order
func (r *Registry) Names() []string {
	var names []string
	r.backends.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}
