package route

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use YAMLRepository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	routes map[string]*Definition
}

// NewInMemoryRepository creates an in-memory route repository seeded with the
// given definitions.
func NewInMemoryRepository(defs ...*Definition) *InMemoryRepository {
	routes := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		cpy := *def
		routes[def.ID] = &cpy
	}
	return &InMemoryRepository{routes: routes}
}

// Get retrieves a route definition by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.routes[id]
	if !ok {
		return nil, ErrRouteNotFound
	}

	cpy := *def
	return &cpy, nil
}

// List retrieves all route definitions, ordered by ID.
func (r *InMemoryRepository) List(_ context.Context) ([]*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Definition, 0, len(r.routes))
	for _, def := range r.routes {
		cpy := *def
		out = append(out, &cpy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
