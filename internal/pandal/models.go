// Package pandal provides the pandal directory services.
package pandal

import (
	"errors"
	"time"

	"github.com/pandalpath/pandalpath/internal/geo"
)

// Repository errors.
var (
	ErrPandalNotFound = errors.New("pandal not found")
)

// Pandal represents a directory entry for one puja pandal.
type Pandal struct {
	ID        string
	Name      string
	Address   string
	Area      string
	Coord     geo.Coordinate
	Rating    float64
	Crowd     geo.CrowdLevel
	Category  geo.Category
	Features  []string
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Place converts the entry into the geometry engine's input shape.
func (p *Pandal) Place() geo.Place {
	return geo.Place{
		ID:       p.ID,
		Name:     p.Name,
		Address:  p.Address,
		Coord:    p.Coord,
		Rating:   p.Rating,
		Crowd:    p.Crowd,
		Category: p.Category,
		Features: append([]string{}, p.Features...),
	}
}
