package step

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownStep is returned by Resolve when no factory is registered.
var ErrUnknownStep = errors.New("step: unknown id")

// Factory constructs a step implementation.
type Factory func() (Step, error)

// Registry maintains known step factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a step factory. Returns an error if the ID already exists.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("step: id is required")
	}
	if factory == nil {
		return fmt.Errorf("step: factory is required for %s", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("step: %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a step by ID and checks that its Info matches.
func (r *Registry) Resolve(id string) (Step, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownStep, id)
	}
	s, err := factory()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("step: factory for %s returned nil", id)
	}
	info := s.Info()
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if info.ID != id {
		return nil, fmt.Errorf("step: factory for %s built %s", id, info.ID)
	}
	return s, nil
}

// Has reports whether a factory exists for id.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns a sorted list of registered step identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
