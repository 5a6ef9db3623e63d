package route

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/api/models"
	"github.com/pandalpath/pandalpath/internal/progress"
)

// ProgressTracker is the slice of the progress store the itinerary tracker
// needs.
type ProgressTracker interface {
	Progress(ctx context.Context, deviceID string) *progress.UserProgress
	MarkRouteCompleted(ctx context.Context, deviceID, routeID string) bool
}

// TrackerConfig holds configuration for the itinerary tracker.
type TrackerConfig struct {
	Repository Repository
	Progress   ProgressTracker
	Logger     zerolog.Logger
}

// Tracker computes live per-device route completion.
//
// The live badge is recomputed from the visited set and per-route steps on
// every read, so it can flip back to incomplete when a visitor unmarks a
// stop. The completion log is separate and one-way: once a route has been
// complete, its membership there is never retracted.
type Tracker struct {
	repo     Repository
	progress ProgressTracker
	logger   zerolog.Logger
}

// NewTracker creates a new itinerary tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		repo:     cfg.Repository,
		progress: cfg.Progress,
		logger:   cfg.Logger,
	}
}

// Status computes the device's completion state for the route. A walkthrough
// has len(sequence)+2 steps: the start sentinel, one per pandal, and the end
// sentinel. Sentinels complete only through explicit step marks; pandal steps
// complete through either the global visited set or a per-route step mark.
func (t *Tracker) Status(ctx context.Context, deviceID, routeID string) (*models.RouteStatus, error) {
	def, err := t.repo.Get(ctx, routeID)
	if err != nil {
		return nil, err
	}

	p := t.progress.Progress(ctx, deviceID)
	rec := p.RouteProgress[routeID]

	stepDone := func(step string) bool {
		return rec != nil && rec.CompletedSteps.Has(step)
	}

	var completed []string
	if stepDone(StepStart) {
		completed = append(completed, StepStart)
	}
	for _, pandalID := range def.PandalSequence {
		if p.VisitedPandals.Has(pandalID) || stepDone(pandalID) {
			completed = append(completed, pandalID)
		}
	}
	if stepDone(StepEnd) {
		completed = append(completed, StepEnd)
	}

	total := len(def.PandalSequence) + 2
	complete := len(completed) == total

	everCompleted := p.HasCompletedRoute(routeID)
	if complete && !everCompleted {
		if t.progress.MarkRouteCompleted(ctx, deviceID, routeID) {
			everCompleted = true
		} else {
			t.logger.Warn().
				Str("device_id", deviceID).
				Str("route_id", routeID).
				Msg("could not record route completion")
		}
	}

	if completed == nil {
		completed = []string{}
	}

	return &models.RouteStatus{
		RouteID:        routeID,
		StepsCompleted: len(completed),
		StepsTotal:     total,
		Complete:       complete,
		EverCompleted:  everCompleted,
		CompletedSteps: completed,
	}, nil
}
