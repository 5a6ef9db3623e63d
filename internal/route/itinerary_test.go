package route_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/kv"
	"github.com/pandalpath/pandalpath/internal/progress"
	"github.com/pandalpath/pandalpath/internal/route"
)

const testDevice = "dev_itinerary"

func newTracker(t *testing.T, defs ...*route.Definition) (*route.Tracker, *progress.Store) {
	t.Helper()
	store := progress.NewStore(progress.StoreConfig{
		Storage: kv.NewMemoryStore(),
		Logger:  zerolog.Nop(),
	})
	tracker := route.NewTracker(route.TrackerConfig{
		Repository: route.NewInMemoryRepository(defs...),
		Progress:   store,
		Logger:     zerolog.Nop(),
	})
	return tracker, store
}

func TestTracker_UnknownRoute(t *testing.T) {
	tracker, _ := newTracker(t)

	_, err := tracker.Status(context.Background(), testDevice, "rt_missing")
	if !errors.Is(err, route.ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound, got %v", err)
	}
}

func TestTracker_FreshRoute(t *testing.T) {
	tracker, _ := newTracker(t, northRoute())

	status, err := tracker.Status(context.Background(), testDevice, "rt_north_classic")
	if err != nil {
		t.Fatalf("failed to compute status: %v", err)
	}

	if status.StepsTotal != 5 {
		t.Errorf("expected 5 total steps for 3 pandals, got %d", status.StepsTotal)
	}
	if status.StepsCompleted != 0 || status.Complete || status.EverCompleted {
		t.Errorf("expected a fresh route, got %+v", status)
	}
}

func TestTracker_VisitedSetCountsTowardSteps(t *testing.T) {
	tracker, store := newTracker(t, northRoute())
	ctx := context.Background()

	// Visits recorded globally count toward any route containing the pandal.
	store.MarkVisited(ctx, testDevice, "pnd_bagbazar", "north_kolkata")
	store.MarkVisited(ctx, testDevice, "pnd_kumartuli", "north_kolkata")

	status, err := tracker.Status(ctx, testDevice, "rt_north_classic")
	if err != nil {
		t.Fatalf("failed to compute status: %v", err)
	}

	if status.StepsCompleted != 2 {
		t.Errorf("expected 2 completed steps, got %d", status.StepsCompleted)
	}
	if status.Complete {
		t.Error("route should not be complete without sentinels")
	}
}

func TestTracker_CompletionRequiresSentinels(t *testing.T) {
	tracker, store := newTracker(t, northRoute())
	ctx := context.Background()

	store.MarkVisited(ctx, testDevice, "pnd_bagbazar", "")
	store.MarkVisited(ctx, testDevice, "pnd_kumartuli", "")
	store.MarkVisited(ctx, testDevice, "pnd_ahiritola", "")

	status, err := tracker.Status(ctx, testDevice, "rt_north_classic")
	if err != nil {
		t.Fatalf("failed to compute status: %v", err)
	}
	if status.Complete {
		t.Fatal("all pandals visited but sentinels unmarked; route must not be complete")
	}
	if status.StepsCompleted != 3 {
		t.Errorf("expected 3 of 5 steps, got %d", status.StepsCompleted)
	}

	store.UpdateRouteProgress(ctx, testDevice, "rt_north_classic", []string{route.StepStart, route.StepEnd})

	status, err = tracker.Status(ctx, testDevice, "rt_north_classic")
	if err != nil {
		t.Fatalf("failed to compute status: %v", err)
	}
	if !status.Complete {
		t.Error("expected route to be complete with sentinels marked")
	}
	if !status.EverCompleted {
		t.Error("expected completion to be logged")
	}
}

func TestTracker_StepMarksSubstituteForVisits(t *testing.T) {
	tracker, store := newTracker(t, northRoute())
	ctx := context.Background()

	// All steps marked per-route, nothing in the global visited set.
	store.UpdateRouteProgress(ctx, testDevice, "rt_north_classic", []string{
		route.StepStart, "pnd_bagbazar", "pnd_kumartuli", "pnd_ahiritola", route.StepEnd,
	})

	status, err := tracker.Status(ctx, testDevice, "rt_north_classic")
	if err != nil {
		t.Fatalf("failed to compute status: %v", err)
	}
	if !status.Complete {
		t.Errorf("expected complete route, got %d/%d", status.StepsCompleted, status.StepsTotal)
	}
}

func TestTracker_CompletionLogIsOneWay(t *testing.T) {
	tracker, store := newTracker(t, northRoute())
	ctx := context.Background()

	store.UpdateRouteProgress(ctx, testDevice, "rt_north_classic", []string{
		route.StepStart, "pnd_bagbazar", "pnd_kumartuli", "pnd_ahiritola", route.StepEnd,
	})

	status, err := tracker.Status(ctx, testDevice, "rt_north_classic")
	if err != nil {
		t.Fatalf("failed to compute status: %v", err)
	}
	if !status.Complete || !status.EverCompleted {
		t.Fatalf("expected completed route, got %+v", status)
	}

	// Retract a step: the live badge flips back, the log does not.
	store.UpdateRouteProgress(ctx, testDevice, "rt_north_classic", []string{
		route.StepStart, route.StepEnd,
	})

	status, err = tracker.Status(ctx, testDevice, "rt_north_classic")
	if err != nil {
		t.Fatalf("failed to compute status: %v", err)
	}
	if status.Complete {
		t.Error("live badge should recompute to incomplete")
	}
	if !status.EverCompleted {
		t.Error("completion log must never be retracted")
	}

	p := store.Progress(ctx, testDevice)
	if p.Stats.TotalRoutesCompleted != 1 {
		t.Errorf("expected completion to be recorded exactly once, got %d", p.Stats.TotalRoutesCompleted)
	}
}

func TestTracker_RecordsCompletionOnce(t *testing.T) {
	tracker, store := newTracker(t, northRoute())
	ctx := context.Background()

	store.UpdateRouteProgress(ctx, testDevice, "rt_north_classic", []string{
		route.StepStart, "pnd_bagbazar", "pnd_kumartuli", "pnd_ahiritola", route.StepEnd,
	})

	// Repeated reads of a complete route must not re-log the completion.
	for i := 0; i < 3; i++ {
		if _, err := tracker.Status(ctx, testDevice, "rt_north_classic"); err != nil {
			t.Fatalf("failed to compute status: %v", err)
		}
	}

	p := store.Progress(ctx, testDevice)
	if p.Stats.TotalRoutesCompleted != 1 {
		t.Errorf("expected exactly one logged completion, got %d", p.Stats.TotalRoutesCompleted)
	}
	if len(p.CompletedRoutes) != 1 {
		t.Errorf("expected one completedRoutes entry, got %v", p.CompletedRoutes)
	}
}
