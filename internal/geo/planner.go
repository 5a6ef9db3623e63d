package geo

import (
	"fmt"
	"math"
	"sort"
)

// CrowdLevel describes how busy a pandal usually is.
type CrowdLevel string

// Crowd levels.
const (
	CrowdLow    CrowdLevel = "low"
	CrowdMedium CrowdLevel = "medium"
	CrowdHigh   CrowdLevel = "high"
)

// Category describes the style of a pandal.
type Category string

// Categories.
const (
	CategoryTraditional Category = "traditional"
	CategoryModern      Category = "modern"
	CategoryThemeBased  Category = "theme-based"
)

// Priority is the suggested importance of a stop.
type Priority string

// Priorities, derived from the pandal rating.
const (
	PriorityMustVisit   Priority = "must_visit"
	PriorityRecommended Priority = "recommended"
	PriorityOptional    Priority = "optional"
)

// VisitTime is the suggested time of day for a stop.
type VisitTime string

// Visit times.
const (
	VisitMorning   VisitTime = "morning"
	VisitAfternoon VisitTime = "afternoon"
	VisitEvening   VisitTime = "evening"
)

// Place is the engine's view of a pandal: just the attributes the planner
// needs. Callers map their domain records into this shape, filtering out any
// entries without coordinates first; missing coordinates are not checked here
// and surface as NaN distances.
type Place struct {
	ID       string
	Name     string
	Address  string
	Coord    Coordinate
	Rating   float64
	Crowd    CrowdLevel
	Category Category
	Features []string
}

// RouteStop is a place decorated with its position in an itinerary and
// per-stop display heuristics. Stops are computed once and immutable after.
type RouteStop struct {
	Place

	// Sequence is the 1-based position in the itinerary.
	Sequence int

	// DistanceFromPreviousMeters is the straight-line distance from the
	// previous stop (from the starting point for the first stop), rounded
	// to the nearest meter.
	DistanceFromPreviousMeters int

	// WalkingMinutesFromPrevious is the estimated walk from the previous stop.
	WalkingMinutesFromPrevious int

	Priority              Priority
	EstimatedVisitMinutes int
	BestVisitTime         VisitTime
	Highlights            []string
	Tip                   string
}

// RouteSummary aggregates a stop sequence.
type RouteSummary struct {
	TotalDistanceKm     float64
	TotalWalkingMinutes int
	TotalVisitMinutes   int
	FormattedDuration   string
}

// BuildOrderedRoute orders places by straight-line distance from start and
// decorates each with distances, walk times, and display heuristics.
//
// The ordering is a single nearest-to-start sort, not a nearest-neighbour
// chain: each stop's distance-from-previous is measured against the
// start-sorted predecessor rather than re-optimized. That keeps the order
// deterministic and cheap, at the cost of global optimality. Saved routes and
// fixtures depend on this ordering, so it must not be "improved".
func BuildOrderedRoute(start Coordinate, places []Place) []RouteStop {
	if len(places) == 0 {
		return []RouteStop{}
	}

	ordered := make([]Place, len(places))
	copy(ordered, places)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Distance(start, ordered[i].Coord) < Distance(start, ordered[j].Coord)
	})

	stops := make([]RouteStop, 0, len(ordered))
	prev := start
	for i, p := range ordered {
		meters := int(math.Round(Distance(prev, p.Coord) * 1000))
		stops = append(stops, RouteStop{
			Place:                      p,
			Sequence:                   i + 1,
			DistanceFromPreviousMeters: meters,
			WalkingMinutesFromPrevious: WalkingMinutes(float64(meters) / 1000),
			Priority:                   priorityFor(p),
			EstimatedVisitMinutes:      visitMinutesFor(p),
			BestVisitTime:              bestVisitTimeFor(p),
			Highlights:                 highlightsFor(p),
			Tip:                        tipFor(p),
		})
		prev = p.Coord
	}

	return stops
}

// Summarize totals walking time, visit time, and distance across the stops.
func Summarize(stops []RouteStop) RouteSummary {
	var meters, walking, visiting int
	for _, s := range stops {
		meters += s.DistanceFromPreviousMeters
		walking += s.WalkingMinutesFromPrevious
		visiting += s.EstimatedVisitMinutes
	}

	return RouteSummary{
		TotalDistanceKm:     math.Round(float64(meters)/10) / 100,
		TotalWalkingMinutes: walking,
		TotalVisitMinutes:   visiting,
		FormattedDuration:   FormatDuration(walking + visiting),
	}
}

// FormatDuration renders total minutes as "2h 15m" or "45 minutes".
func FormatDuration(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func priorityFor(p Place) Priority {
	switch {
	case p.Rating >= 4.5:
		return PriorityMustVisit
	case p.Rating >= 4.0:
		return PriorityRecommended
	default:
		return PriorityOptional
	}
}

func visitMinutesFor(p Place) int {
	minutes := 15
	if len(p.Features) > 2 {
		minutes += 10
	}
	switch p.Crowd {
	case CrowdHigh:
		minutes += 15
	case CrowdMedium:
		minutes += 5
	}
	return minutes
}

func bestVisitTimeFor(p Place) VisitTime {
	if p.Crowd == CrowdHigh {
		// Beat the crowds.
		return VisitMorning
	}
	if hasFeature(p, "lighting") {
		return VisitEvening
	}
	return VisitAfternoon
}

// highlightsFor collects up to three badges in a fixed order: rating badge,
// category badge, the pandal's own features, then the crowd badge. The order
// matters because truncation happens during collection, not after.
func highlightsFor(p Place) []string {
	var out []string
	add := func(s string) {
		if len(out) < 3 {
			out = append(out, s)
		}
	}

	if p.Rating >= 4.5 {
		add("Top Rated")
	}
	if label := categoryLabel(p.Category); label != "" {
		add(label)
	}
	for i, f := range p.Features {
		if i >= 2 {
			break
		}
		add(f)
	}
	if p.Crowd == CrowdLow {
		add("Less Crowded")
	}

	return out
}

func categoryLabel(c Category) string {
	switch c {
	case CategoryTraditional:
		return "Traditional Theme"
	case CategoryModern:
		return "Modern Design"
	case CategoryThemeBased:
		return "Unique Theme"
	default:
		return ""
	}
}

// tipFor picks a single tip; the first matching rule wins.
func tipFor(p Place) string {
	switch {
	case p.Crowd == CrowdHigh:
		return "Gets very crowded - visit early morning or late evening for a shorter queue"
	case hasFeature(p, "food"):
		return "Try the food stalls around this pandal"
	case p.Category == CategoryTraditional:
		return "Great spot for photography - the traditional decor shines in daylight"
	default:
		return "Take your time and enjoy the atmosphere"
	}
}

func hasFeature(p Place, want string) bool {
	for _, f := range p.Features {
		if f == want {
			return true
		}
	}
	return false
}
