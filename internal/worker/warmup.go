package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/api/models"
)

// NearbySearcher runs proximity queries against the pandal directory. A query
// rebuilds the directory's cell index when it has gone stale, which is the
// whole point of the warmup.
type NearbySearcher interface {
	Nearby(ctx context.Context, lat, lon, radiusKm float64) (*models.NearbyPandals, error)
}

// RouteLister loads the curated route set, priming the definitions cache.
type RouteLister interface {
	List(ctx context.Context) (*models.RouteList, error)
}

// WarmupJob keeps the directory's proximity index and the curated route cache
// hot so the first visitor query after a deploy or invalidation does not pay
// the rebuild cost.
type WarmupJob struct {
	config WarmupConfig
	logger zerolog.Logger

	// Services (optional, nil if not configured)
	nearby NearbySearcher
	routes RouteLister

	// Metrics
	metrics *WarmupMetrics
}

// WarmupMetrics tracks warmup job statistics.
type WarmupMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalWarmups      int64
	SuccessfulWarmups int64
	FailedWarmups     int64
	NearbyQueries     int64
	RouteWarmups      int64

	// Timings
	LastWarmupAt       time.Time
	LastWarmupDuration time.Duration
	TotalDuration      time.Duration
}

// WarmupJobConfig holds configuration for creating a WarmupJob.
type WarmupJobConfig struct {
	Config WarmupConfig
	Logger zerolog.Logger
	Nearby NearbySearcher
	Routes RouteLister
}

// NewWarmupJob creates a new warmup job processor.
func NewWarmupJob(cfg WarmupJobConfig) *WarmupJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultWarmupConfig()
	}
	if config.RadiusKm == 0 {
		config.RadiusKm = 3
	}

	return &WarmupJob{
		config:  config,
		logger:  cfg.Logger,
		nearby:  cfg.Nearby,
		routes:  cfg.Routes,
		metrics: &WarmupMetrics{},
	}
}

// WarmupResult contains the result of a warmup operation.
type WarmupResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Errors      []WarmupError
}

// WarmupError represents an error during warmup.
type WarmupError struct {
	Stage string
	Point Point
	Error string
}

// Run executes the warmup job for all configured targets.
func (j *WarmupJob) Run(ctx context.Context) *WarmupResult {
	startTime := time.Now()
	result := &WarmupResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warmup job")

	// Route definitions are shared state, warm them once up front
	if j.config.WarmRoutes && j.routes != nil {
		if _, err := j.routes.List(ctx); err != nil {
			j.logger.Warn().Err(err).Msg("route cache warmup failed")
			result.Errors = append(result.Errors, WarmupError{
				Stage: "routes",
				Error: err.Error(),
			})
		} else {
			atomic.AddInt64(&j.metrics.RouteWarmups, 1)
		}
	}

	points := j.config.AllPoints()

	// Create work channels
	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			j.warmupWorker(ctx, workerID, pointsChan, resultsChan)
		}(i)
	}

	// Send points to workers
	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache warmup job completed")

	return result
}

type pointResult struct {
	point   Point
	success bool
	errors  []WarmupError
}

func (j *WarmupJob) warmupWorker(ctx context.Context, _ int, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			result := j.warmPoint(ctx, point)
			results <- result
		}
	}
}

func (j *WarmupJob) warmPoint(ctx context.Context, point Point) pointResult {
	result := pointResult{
		point:   point,
		success: true,
	}

	// Create timeout context for this point
	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.WarmNearby && j.nearby != nil {
		if _, err := j.nearby.Nearby(pointCtx, point.Lat, point.Lon, j.config.RadiusKm); err != nil {
			result.errors = append(result.errors, WarmupError{
				Stage: "nearby",
				Point: point,
				Error: err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.NearbyQueries, 1)
		}
	}

	return result
}

func (j *WarmupJob) updateMetrics(result *WarmupResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalWarmups++
	j.metrics.SuccessfulWarmups += int64(result.Successful)
	j.metrics.FailedWarmups += int64(result.Failed)
	j.metrics.LastWarmupAt = result.EndTime
	j.metrics.LastWarmupDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmupJob) GetMetrics() WarmupMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmupMetrics{
		TotalWarmups:       j.metrics.TotalWarmups,
		SuccessfulWarmups:  j.metrics.SuccessfulWarmups,
		FailedWarmups:      j.metrics.FailedWarmups,
		NearbyQueries:      j.metrics.NearbyQueries,
		RouteWarmups:       j.metrics.RouteWarmups,
		LastWarmupAt:       j.metrics.LastWarmupAt,
		LastWarmupDuration: j.metrics.LastWarmupDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *WarmupJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_warmups":        m.TotalWarmups,
		"successful_warmups":   m.SuccessfulWarmups,
		"failed_warmups":       m.FailedWarmups,
		"nearby_queries":       m.NearbyQueries,
		"route_warmups":        m.RouteWarmups,
		"last_warmup_at":       m.LastWarmupAt,
		"last_warmup_duration": m.LastWarmupDuration.String(),
		"total_duration":       m.TotalDuration.String(),
	}
}
