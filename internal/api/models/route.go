package models

// RouteStartPoint is the named starting location of a curated route.
type RouteStartPoint struct {
	Name  string `json:"name"`
	Point Point  `json:"point"`
}

// Route is a curated hopping route summary.
type Route struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Area            string          `json:"area"`
	Start           RouteStartPoint `json:"start"`
	PandalSequence  []string        `json:"pandalSequence"`
	DurationMinutes int             `json:"durationMinutes"`
	Difficulty      string          `json:"difficulty"`
}

// RouteSegment is one decoded walking leg of a curated route.
type RouteSegment struct {
	Points       []Point `json:"points"`
	LengthMeters int     `json:"lengthMeters"`
}

// RouteDetail is a curated route with its decoded walking segments.
type RouteDetail struct {
	Route
	Segments        []RouteSegment `json:"segments"`
	TotalDistanceKm float64        `json:"totalDistanceKm"`
}

// RouteList is the response for listing curated routes.
type RouteList struct {
	Items []Route `json:"items"`
}

// PlanRequest is the request body for planning an ad-hoc route.
type PlanRequest struct {
	Start Point  `json:"start" validate:"required"`
	Area  string `json:"area,omitempty"`
}

// PlannedStop is one stop of a computed itinerary.
type PlannedStop struct {
	PandalID                   string   `json:"pandalId"`
	Name                       string   `json:"name"`
	Address                    string   `json:"address"`
	Point                      Point    `json:"point"`
	Sequence                   int      `json:"sequence"`
	DistanceFromPreviousMeters int      `json:"distanceFromPreviousMeters"`
	WalkingMinutesFromPrevious int      `json:"walkingMinutesFromPrevious"`
	Priority                   string   `json:"priority"`
	EstimatedVisitMinutes      int      `json:"estimatedVisitMinutes"`
	BestVisitTime              string   `json:"bestVisitTime"`
	Highlights                 []string `json:"highlights"`
	Tip                        string   `json:"tip"`
}

// PlannedRoute is a computed itinerary with its summary.
type PlannedRoute struct {
	Stops               []PlannedStop `json:"stops"`
	TotalDistanceKm     float64       `json:"totalDistanceKm"`
	TotalWalkingMinutes int           `json:"totalWalkingMinutes"`
	TotalVisitMinutes   int           `json:"totalVisitMinutes"`
	FormattedDuration   string        `json:"formattedDuration"`
}

// RouteStatus reports a device's live completion state for one route.
type RouteStatus struct {
	RouteID        string   `json:"routeId"`
	StepsCompleted int      `json:"stepsCompleted"`
	StepsTotal     int      `json:"stepsTotal"`
	Complete       bool     `json:"complete"`
	EverCompleted  bool     `json:"everCompleted"`
	CompletedSteps []string `json:"completedSteps"`
}
