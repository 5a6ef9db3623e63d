package pandal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL pandal repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const pandalColumns = `
	id, name, address, area, lat, lon, rating,
	crowd_level, category, features, image_url,
	created_at, updated_at
`

// Get retrieves a pandal by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Pandal, error) {
	query := `SELECT ` + pandalColumns + ` FROM pandals WHERE id = $1`

	var p Pandal
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Address,
		&p.Area,
		&p.Coord.Lat,
		&p.Coord.Lon,
		&p.Rating,
		&p.Crowd,
		&p.Category,
		&p.Features,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPandalNotFound
		}
		return nil, err
	}

	return &p, nil
}

// List retrieves pandals matching the filters, paginated by ID cursor.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	conditions := []string{}
	args := []interface{}{}

	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	addCondition("area", opts.Area)
	addCondition("category", opts.Category)
	addCondition("crowd_level", opts.Crowd)

	if opts.Cursor != "" {
		args = append(args, opts.Cursor)
		conditions = append(conditions, fmt.Sprintf("id > $%d", len(args)))
	}

	query := `SELECT ` + pandalColumns + ` FROM pandals`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, fetchLimit)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pandals, err := scanPandals(rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Items: pandals}
	if len(pandals) > limit {
		result.Items = pandals[:limit]
		result.NextCursor = pandals[limit-1].ID
	}

	return result, nil
}

// All retrieves every pandal.
func (r *PostgresRepository) All(ctx context.Context) ([]*Pandal, error) {
	query := `SELECT ` + pandalColumns + ` FROM pandals ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPandals(rows)
}

func scanPandals(rows pgx.Rows) ([]*Pandal, error) {
	var pandals []*Pandal
	for rows.Next() {
		var p Pandal
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Address,
			&p.Area,
			&p.Coord.Lat,
			&p.Coord.Lon,
			&p.Rating,
			&p.Crowd,
			&p.Category,
			&p.Features,
			&p.ImageURL,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		pandals = append(pandals, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pandals, nil
}

// Create creates a new pandal.
func (r *PostgresRepository) Create(ctx context.Context, p *Pandal) error {
	query := `
		INSERT INTO pandals (
			id, name, address, area, lat, lon, rating,
			crowd_level, category, features, image_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Address,
		p.Area,
		p.Coord.Lat,
		p.Coord.Lon,
		p.Rating,
		p.Crowd,
		p.Category,
		p.Features,
		p.ImageURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update updates an existing pandal.
func (r *PostgresRepository) Update(ctx context.Context, p *Pandal) error {
	query := `
		UPDATE pandals SET
			name = $2,
			address = $3,
			area = $4,
			lat = $5,
			lon = $6,
			rating = $7,
			crowd_level = $8,
			category = $9,
			features = $10,
			image_url = $11,
			updated_at = $12
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Address,
		p.Area,
		p.Coord.Lat,
		p.Coord.Lon,
		p.Rating,
		p.Crowd,
		p.Category,
		p.Features,
		p.ImageURL,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrPandalNotFound
	}

	return nil
}

// Delete deletes a pandal by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM pandals WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
