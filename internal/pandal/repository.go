package pandal

import "context"

// ListOptions contains filters and pagination for listing pandals.
type ListOptions struct {
	Area     string
	Category string
	Crowd    string
	Limit    int
	Cursor   string
}

// ListResult contains the results of listing pandals.
type ListResult struct {
	Items      []*Pandal
	NextCursor string
}

// Repository defines the interface for pandal data persistence.
type Repository interface {
	// Get retrieves a pandal by ID.
	// Returns ErrPandalNotFound if the pandal doesn't exist.
	Get(ctx context.Context, id string) (*Pandal, error)

	// List retrieves pandals matching the filters, paginated by ID cursor.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// All retrieves every pandal. Used to build the proximity index.
	All(ctx context.Context) ([]*Pandal, error)

	// Create creates a new pandal.
	Create(ctx context.Context, p *Pandal) error

	// Update updates an existing pandal.
	Update(ctx context.Context, p *Pandal) error

	// Delete deletes a pandal by ID.
	Delete(ctx context.Context, id string) error
}
