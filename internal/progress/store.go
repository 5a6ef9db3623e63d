package progress

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/kv"
)

// DefaultTTL is how long a progress envelope lives before an unvisited
// device's record is considered abandoned.
const DefaultTTL = 30 * 24 * time.Hour

// DefaultKeyPrefix namespaces progress envelopes in the key-value store.
const DefaultKeyPrefix = "pandalpath:progress:"

// envelope wraps every persisted value with its write time and an absolute
// expiry. Reads that find an expired envelope treat it as absent and delete
// the key.
type envelope struct {
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Value     json.RawMessage `json:"value"`
}

// StoreConfig holds configuration for the progress store.
type StoreConfig struct {
	// Storage is the key-value backend. Required.
	Storage kv.Store

	// Logger for store operations.
	Logger zerolog.Logger

	// Clock returns the current wall-clock time (default: time.Now).
	// Injectable so expiry and streak behavior is testable.
	Clock func() time.Time

	// TTL is the envelope lifetime (default: 30 days).
	TTL time.Duration

	// KeyPrefix namespaces envelope keys (default: DefaultKeyPrefix).
	KeyPrefix string
}

// Store tracks per-device itinerary progress.
//
// All mutations serialize through a single mutex and re-read the persisted
// record before modifying it, so rapid back-to-back mutations each observe
// the other's effect instead of clobbering a stale copy. When the backend is
// unavailable, mutators return false and reads fall back to the last
// successfully loaded snapshot (or fresh defaults); nothing escapes the store
// as a panic or error.
type Store struct {
	storage   kv.Store
	logger    zerolog.Logger
	clock     func() time.Time
	ttl       time.Duration
	keyPrefix string

	mu        sync.Mutex
	snapshots map[string]*UserProgress
}

// NewStore creates a new progress store.
func NewStore(cfg StoreConfig) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	return &Store{
		storage:   cfg.Storage,
		logger:    cfg.Logger,
		clock:     clock,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		snapshots: make(map[string]*UserProgress),
	}
}

// KeyPrefix returns the envelope key namespace, for the expiry sweeper.
func (s *Store) KeyPrefix() string {
	return s.keyPrefix
}

// Progress returns the current record for the device, synthesizing and
// persisting defaults when the record is absent, expired, or corrupt.
func (s *Store) Progress(ctx context.Context, deviceID string) *UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, fresh := s.load(ctx, deviceID)
	if fresh {
		// Best effort; the defaults are still valid if the write fails.
		if err := s.persist(ctx, deviceID, p); err != nil {
			s.logger.Warn().Err(err).Str("device_id", deviceID).
				Msg("failed to persist synthesized progress defaults")
		}
	}
	return p.Clone()
}

// MarkVisited records a pandal visit. It is idempotent on the visited set:
// marking an already-visited pandal succeeds without touching counters,
// streaks, or the favorite area.
func (s *Store) MarkVisited(ctx context.Context, deviceID, pandalID, area string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.load(ctx, deviceID)
	if p.VisitedPandals.Has(pandalID) {
		return true
	}

	now := s.clock()
	previousVisit := p.Stats.LastVisitDate

	p.VisitedPandals.Add(pandalID)
	p.Stats.TotalPandalsVisited++
	p.Stats.LastVisitDate = &now

	// Streak rule: another visit on the same calendar day extends the
	// streak; a visit on any other day resets it to 1. This counts
	// same-day visits rather than consecutive-day attendance. Known quirk,
	// kept for compatibility with stored data; pinned by tests.
	if previousVisit != nil && sameCalendarDay(*previousVisit, now) {
		p.Stats.CurrentStreak++
	} else {
		p.Stats.CurrentStreak = 1
	}
	if p.Stats.CurrentStreak > p.Stats.LongestStreak {
		p.Stats.LongestStreak = p.Stats.CurrentStreak
	}

	// First area ever recorded wins and is never overwritten.
	if p.Stats.FavoriteArea == "" && area != "" {
		p.Stats.FavoriteArea = area
	}

	return s.commit(ctx, deviceID, p)
}

// UnmarkVisited removes a pandal from the visited set and decrements the
// visit counter, floored at zero. Streak and favorite area are untouched.
func (s *Store) UnmarkVisited(ctx context.Context, deviceID, pandalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.load(ctx, deviceID)
	if !p.VisitedPandals.Has(pandalID) {
		return true
	}

	p.VisitedPandals.Remove(pandalID)
	if p.Stats.TotalPandalsVisited > 0 {
		p.Stats.TotalPandalsVisited--
	}

	return s.commit(ctx, deviceID, p)
}

// UpdateRouteProgress replaces the completed-step set for a route wholesale.
// The route record is created with startedAt=now on first touch.
func (s *Store) UpdateRouteProgress(ctx context.Context, deviceID, routeID string, completedSteps []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.load(ctx, deviceID)
	now := s.clock()

	rec, ok := p.RouteProgress[routeID]
	if !ok {
		rec = &RouteRecord{StartedAt: now}
		p.RouteProgress[routeID] = rec
	}
	rec.CompletedSteps = NewStringSet(completedSteps...)
	rec.LastUpdated = now

	return s.commit(ctx, deviceID, p)
}

// MarkRouteCompleted appends the route to the completion log, once. The log
// is never retracted; a route unmarked in the UI keeps its history here.
func (s *Store) MarkRouteCompleted(ctx context.Context, deviceID, routeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.load(ctx, deviceID)
	if p.HasCompletedRoute(routeID) {
		return true
	}

	p.CompletedRoutes = append(p.CompletedRoutes, routeID)
	p.Stats.TotalRoutesCompleted++

	return s.commit(ctx, deviceID, p)
}

// UpdatePreferences stores the visitor's settings verbatim.
func (s *Store) UpdatePreferences(ctx context.Context, deviceID string, prefs Preferences) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.load(ctx, deviceID)
	p.Preferences = prefs

	return s.commit(ctx, deviceID, p)
}

// IsVisited reports whether the pandal is in the device's visited set.
func (s *Store) IsVisited(ctx context.Context, deviceID, pandalID string) bool {
	return s.Progress(ctx, deviceID).VisitedPandals.Has(pandalID)
}

// IsRouteCompleted reports whether the route is in the completion log.
func (s *Store) IsRouteCompleted(ctx context.Context, deviceID, routeID string) bool {
	return s.Progress(ctx, deviceID).HasCompletedRoute(routeID)
}

// RouteProgress returns the route record for the device, or nil if the route
// was never started.
func (s *Store) RouteProgress(ctx context.Context, deviceID, routeID string) *RouteRecord {
	return s.Progress(ctx, deviceID).RouteProgress[routeID]
}

// load reads the current persisted record for the device. The second return
// is true when defaults were synthesized (absent, expired, or corrupt data).
// Callers must hold s.mu.
func (s *Store) load(ctx context.Context, deviceID string) (*UserProgress, bool) {
	raw, ok, err := s.storage.Get(ctx, s.keyPrefix+deviceID)
	if err != nil {
		s.logger.Warn().Err(err).Str("device_id", deviceID).
			Msg("progress read failed, falling back to last snapshot")
		if snap, ok := s.snapshots[deviceID]; ok {
			return snap.Clone(), false
		}
		return NewUserProgress(), false
	}
	if !ok {
		return NewUserProgress(), true
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		s.logger.Warn().Err(err).Str("device_id", deviceID).
			Msg("discarding malformed progress envelope")
		s.deleteKey(ctx, deviceID)
		return NewUserProgress(), true
	}

	if s.clock().After(env.ExpiresAt) {
		s.deleteKey(ctx, deviceID)
		return NewUserProgress(), true
	}

	var p UserProgress
	if err := json.Unmarshal(env.Value, &p); err != nil {
		s.logger.Warn().Err(err).Str("device_id", deviceID).
			Msg("discarding malformed progress record")
		s.deleteKey(ctx, deviceID)
		return NewUserProgress(), true
	}
	p.normalize()

	s.snapshots[deviceID] = p.Clone()
	return &p, false
}

// commit persists the record and refreshes the snapshot cache. A failed
// write leaves the cached snapshot untouched and reports failure.
func (s *Store) commit(ctx context.Context, deviceID string, p *UserProgress) bool {
	if err := s.persist(ctx, deviceID, p); err != nil {
		s.logger.Warn().Err(err).Str("device_id", deviceID).
			Msg("progress write failed, mutation dropped")
		return false
	}
	s.snapshots[deviceID] = p.Clone()
	return true
}

func (s *Store) persist(ctx context.Context, deviceID string, p *UserProgress) error {
	value, err := json.Marshal(p)
	if err != nil {
		return err
	}

	now := s.clock()
	env := envelope{
		StoredAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Value:     value,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return s.storage.Set(ctx, s.keyPrefix+deviceID, string(raw))
}

func (s *Store) deleteKey(ctx context.Context, deviceID string) {
	if err := s.storage.Delete(ctx, s.keyPrefix+deviceID); err != nil {
		s.logger.Warn().Err(err).Str("device_id", deviceID).
			Msg("failed to delete stale progress envelope")
	}
}

// sameCalendarDay compares the local-time date portions of a and b.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
