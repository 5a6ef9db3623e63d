// Package route provides curated hopping route definitions, ad-hoc route
// planning through the geometry engine, and per-device completion tracking.
package route

import (
	"errors"

	"github.com/pandalpath/pandalpath/internal/geo"
)

// Repository errors.
var (
	ErrRouteNotFound = errors.New("route not found")
)

// Step sentinels bracketing the pandal sequence in a route walkthrough.
const (
	StepStart = "start"
	StepEnd   = "end"
)

// StartPoint is the named location a curated route begins at.
type StartPoint struct {
	Name  string         `yaml:"name"`
	Coord geo.Coordinate `yaml:"coord"`
}

// Definition is an authored hopping route. Curated routes carry their own
// ordering, timing, and walking segments; they never go through the planner.
type Definition struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Area        string     `yaml:"area"`
	Start       StartPoint `yaml:"start"`

	// PandalSequence is the ordered list of pandal ids along the route.
	PandalSequence []string `yaml:"pandalSequence"`

	// Segments are polyline-encoded walking legs between consecutive stops.
	Segments []string `yaml:"segments"`

	DurationMinutes int    `yaml:"durationMinutes"`
	Difficulty      string `yaml:"difficulty"`
}
