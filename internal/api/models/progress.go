package models

// DeviceProgress is the full progress record for a device.
type DeviceProgress struct {
	VisitedPandals  []string                 `json:"visitedPandals"`
	CompletedRoutes []string                 `json:"completedRoutes"`
	RouteProgress   map[string]RouteProgress `json:"routeProgress"`
	Stats           ProgressStats            `json:"stats"`
	Preferences     ProgressPreferences      `json:"preferences"`
}

// RouteProgress is the per-route step completion record.
type RouteProgress struct {
	CompletedSteps []string  `json:"completedSteps"`
	StartedAt      Timestamp `json:"startedAt"`
	LastUpdated    Timestamp `json:"lastUpdated"`
}

// ProgressStats holds the accumulated visiting statistics for a device.
type ProgressStats struct {
	TotalPandalsVisited  int        `json:"totalPandalsVisited"`
	TotalRoutesCompleted int        `json:"totalRoutesCompleted"`
	FavoriteArea         string     `json:"favoriteArea,omitempty"`
	CurrentStreak        int        `json:"currentStreak"`
	LongestStreak        int        `json:"longestStreak"`
	LastVisitDate        *Timestamp `json:"lastVisitDate,omitempty"`
}

// ProgressPreferences are free-form visitor settings, stored verbatim.
type ProgressPreferences struct {
	TransportMode  string `json:"transportMode,omitempty"`
	PreferredTime  string `json:"preferredTime,omitempty"`
	CrowdTolerance string `json:"crowdTolerance,omitempty"`
}

// VisitRequest marks or unmarks a pandal visit.
type VisitRequest struct {
	PandalID string `json:"pandalId" validate:"required"`
}

// RouteProgressUpdateRequest replaces the completed-step set for a route.
type RouteProgressUpdateRequest struct {
	CompletedSteps []string `json:"completedSteps"`
}

// VisitResponse acknowledges a visit mutation with the refreshed stats.
type VisitResponse struct {
	PandalID string        `json:"pandalId"`
	Visited  bool          `json:"visited"`
	Stats    ProgressStats `json:"stats"`
}
