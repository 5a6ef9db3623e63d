package pandal

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	pandals map[string]*Pandal
}

// NewInMemoryRepository creates a new in-memory pandal repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		pandals: make(map[string]*Pandal),
	}
}

// Get retrieves a pandal by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Pandal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pandals[id]
	if !ok {
		return nil, ErrPandalNotFound
	}

	cpy := *p
	return &cpy, nil
}

// List retrieves pandals matching the filters, ordered by ID.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Pandal
	for _, p := range r.pandals {
		if !matches(p, opts) {
			continue
		}
		if opts.Cursor != "" && p.ID <= opts.Cursor {
			continue
		}
		cpy := *p
		matched = append(matched, &cpy)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &ListResult{Items: matched}
	if len(matched) > limit {
		result.Items = matched[:limit]
		result.NextCursor = matched[limit-1].ID
	}

	return result, nil
}

// All retrieves every pandal.
func (r *InMemoryRepository) All(_ context.Context) ([]*Pandal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Pandal, 0, len(r.pandals))
	for _, p := range r.pandals {
		cpy := *p
		out = append(out, &cpy)
	}
	return out, nil
}

// Create creates a new pandal.
func (r *InMemoryRepository) Create(_ context.Context, p *Pandal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *p
	r.pandals[p.ID] = &cpy
	return nil
}

// Update updates an existing pandal.
func (r *InMemoryRepository) Update(_ context.Context, p *Pandal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pandals[p.ID]; !ok {
		return ErrPandalNotFound
	}

	cpy := *p
	r.pandals[p.ID] = &cpy
	return nil
}

// Delete deletes a pandal by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pandals, id)
	return nil
}

func matches(p *Pandal, opts ListOptions) bool {
	if opts.Area != "" && p.Area != opts.Area {
		return false
	}
	if opts.Category != "" && string(p.Category) != opts.Category {
		return false
	}
	if opts.Crowd != "" && string(p.Crowd) != opts.Crowd {
		return false
	}
	return true
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
