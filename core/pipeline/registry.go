package pipeline

import (
	"fmt"
	"sync"
)

// Factory constructs a middleware from application-supplied dependencies.
type Factory[D any] func(deps D) (Middleware, error)

// Registry maps configuration-declared middleware names to factories.
// It resolves an ordered list of names into an ordered chain of
// instances, once, at startup.
type Registry[D any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[D]
}

// NewRegistry creates an empty middleware registry.
func NewRegistry[D any]() *Registry[D] {
	return &Registry[D]{
		factories: make(map[string]Factory[D]),
	}
}

// Register binds a name to a factory, replacing any previous binding.
func (r *Registry[D]) Register(name string, factory Factory[D]) {
	r.mu.Lock()
	r.factories[name] = factory
	r.mu.Unlock()
}

// Build resolves the named middleware in order into concrete instances.
// Returns ErrUnknownMiddleware for names without a registered factory.
func (r *Registry[D]) Build(names []string, deps D) ([]Middleware, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]Middleware, 0, len(names))
	for _, name := range names {
		factory, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMiddleware, name)
		}

		mw, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("build middleware %q: %w", name, err)
		}
		chain = append(chain, mw)
	}

	return chain, nil
}
