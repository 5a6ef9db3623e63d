package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/progress"
)

// SweepJob runs progress envelope expiry sweeps on demand. The interval
// scheduling lives in progress.Sweeper; this wrapper exists for one-shot
// sweeps triggered by queue messages, with metrics.
type SweepJob struct {
	sweeper *progress.Sweeper
	logger  zerolog.Logger

	mu      sync.RWMutex
	metrics SweepMetrics
}

// SweepMetrics tracks sweep job statistics.
type SweepMetrics struct {
	TotalSweeps   int64
	TotalScanned  int64
	TotalDeleted  int64
	TotalErrors   int64
	LastSweepAt   time.Time
	LastSweepTook time.Duration
}

// NewSweepJob creates a new sweep job processor.
func NewSweepJob(sweeper *progress.Sweeper, logger zerolog.Logger) *SweepJob {
	return &SweepJob{
		sweeper: sweeper,
		logger:  logger,
	}
}

// Run executes one sweep pass.
func (j *SweepJob) Run(ctx context.Context) progress.SweepResult {
	start := time.Now()
	result := j.sweeper.Sweep(ctx)
	took := time.Since(start)

	j.mu.Lock()
	j.metrics.TotalSweeps++
	j.metrics.TotalScanned += int64(result.Scanned)
	j.metrics.TotalDeleted += int64(result.Deleted)
	j.metrics.TotalErrors += int64(result.Errors)
	j.metrics.LastSweepAt = time.Now()
	j.metrics.LastSweepTook = took
	j.mu.Unlock()

	j.logger.Info().
		Dur("duration", took).
		Int("scanned", result.Scanned).
		Int("deleted", result.Deleted).
		Int("errors", result.Errors).
		Msg("progress sweep job completed")

	return result
}

// GetMetrics returns a copy of the current metrics.
func (j *SweepJob) GetMetrics() SweepMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.metrics
}
