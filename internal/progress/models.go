// Package progress provides the per-device itinerary progress store: which
// pandals a visitor has seen, which hopping routes they have finished, and
// per-route step completion, persisted as TTL-wrapped envelopes in a
// key-value store.
package progress

import (
	"encoding/json"
	"sort"
	"time"
)

// StringSet is a set of strings that serializes as a sorted array of unique
// values, so envelopes stay diffable and stable across writes.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Remove deletes v.
func (s StringSet) Remove(v string) {
	delete(s, v)
}

// Len returns the number of elements.
func (s StringSet) Len() int {
	return len(s)
}

// Values returns the sorted elements.
func (s StringSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns a copy of the set.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// MarshalJSON implements json.Marshaler as a sorted string array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON implements json.Unmarshaler from a string array.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}

// RouteRecord tracks a visitor's step completion within one route.
type RouteRecord struct {
	// CompletedSteps holds pandal ids plus the "start" and "end" sentinels.
	CompletedSteps StringSet `json:"completedSteps"`

	StartedAt   time.Time `json:"startedAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Stats holds the accumulated visiting statistics for a device.
//
// TotalPandalsVisited is maintained by explicit increments on first-time
// marks and floor-zero decrements on unmarks, never recomputed from the set.
// It can drift from the set size in stored data written by older builds and
// that drift is deliberately left alone.
type Stats struct {
	TotalPandalsVisited  int        `json:"totalPandalsVisited"`
	TotalRoutesCompleted int        `json:"totalRoutesCompleted"`
	FavoriteArea         string     `json:"favoriteArea,omitempty"`
	CurrentStreak        int        `json:"currentStreak"`
	LongestStreak        int        `json:"longestStreak"`
	LastVisitDate        *time.Time `json:"lastVisitDate,omitempty"`
}

// Preferences are free-form visitor settings. Stored verbatim, never computed.
type Preferences struct {
	TransportMode  string `json:"transportMode,omitempty"`
	PreferredTime  string `json:"preferredTime,omitempty"`
	CrowdTolerance string `json:"crowdTolerance,omitempty"`
}

// UserProgress is the whole per-device progress record. It is persisted as a
// single envelope value: every mutation rewrites the full record.
type UserProgress struct {
	// VisitedPandals is global across routes: a pandal visited on any
	// route stays visited everywhere.
	VisitedPandals StringSet `json:"visitedPandals"`

	// CompletedRoutes is an append-once log; entries are never retracted
	// even if the visitor later unmarks stops.
	CompletedRoutes []string `json:"completedRoutes"`

	RouteProgress map[string]*RouteRecord `json:"routeProgress"`
	Stats         Stats                   `json:"stats"`
	Preferences   Preferences             `json:"preferences"`
}

// NewUserProgress returns an empty progress record with all fields initialized.
func NewUserProgress() *UserProgress {
	return &UserProgress{
		VisitedPandals:  NewStringSet(),
		CompletedRoutes: []string{},
		RouteProgress:   make(map[string]*RouteRecord),
	}
}

// HasCompletedRoute reports whether routeID is in the completion log.
func (p *UserProgress) HasCompletedRoute(routeID string) bool {
	for _, id := range p.CompletedRoutes {
		if id == routeID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (p *UserProgress) Clone() *UserProgress {
	out := &UserProgress{
		VisitedPandals:  p.VisitedPandals.Clone(),
		CompletedRoutes: append([]string{}, p.CompletedRoutes...),
		RouteProgress:   make(map[string]*RouteRecord, len(p.RouteProgress)),
		Stats:           p.Stats,
		Preferences:     p.Preferences,
	}
	if p.Stats.LastVisitDate != nil {
		t := *p.Stats.LastVisitDate
		out.Stats.LastVisitDate = &t
	}
	for id, rec := range p.RouteProgress {
		out.RouteProgress[id] = &RouteRecord{
			CompletedSteps: rec.CompletedSteps.Clone(),
			StartedAt:      rec.StartedAt,
			LastUpdated:    rec.LastUpdated,
		}
	}
	return out
}

// normalize fills in nil collection fields after deserialization so callers
// never see nil maps or sets.
func (p *UserProgress) normalize() {
	if p.VisitedPandals == nil {
		p.VisitedPandals = NewStringSet()
	}
	if p.CompletedRoutes == nil {
		p.CompletedRoutes = []string{}
	}
	if p.RouteProgress == nil {
		p.RouteProgress = make(map[string]*RouteRecord)
	}
	for _, rec := range p.RouteProgress {
		if rec.CompletedSteps == nil {
			rec.CompletedSteps = NewStringSet()
		}
	}
}
