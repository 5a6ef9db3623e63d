package route

import "context"

// Repository defines the interface for curated route definitions.
type Repository interface {
	// Get retrieves a route definition by ID.
	// Returns ErrRouteNotFound if the route doesn't exist.
	Get(ctx context.Context, id string) (*Definition, error)

	// List retrieves all route definitions, ordered by ID.
	List(ctx context.Context) ([]*Definition, error)
}
