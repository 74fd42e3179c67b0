package runtime

import (
	"fmt"
	"sync"
)

// Registry holds the known adapters, keyed by ID. The host registers its
// runtimes at startup and looks them up when the user switches backend.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Registering a duplicate ID is an error.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if id == "" {
		return fmt.Errorf("adapter has empty ID")
	}
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("runtime %q already registered", id)
	}
	r.adapters[id] = a
	r.order = append(r.order, id)
	return nil
}

// Get returns the adapter with the given ID.
func (r *Registry) Get(id string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuntime, id)
	}
	return a, nil
}

// List returns all adapters in registration order.
func (r *Registry) List() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.adapters[id])
	}
	return out
}

// StopAll stops every registered adapter. Stop never fails on an
// already-stopped adapter, so this is safe to call unconditionally at
// shutdown.
func (r *Registry) StopAll() {
	for _, a := range r.List() {
		_ = a.Stop()
	}
}
