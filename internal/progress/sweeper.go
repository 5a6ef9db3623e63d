package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/pandalpath/pandalpath/internal/kv"
)

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = 24 * time.Hour

// SweeperConfig holds configuration for the envelope expiry sweeper.
type SweeperConfig struct {
	// Storage is the key-value backend shared with the progress store.
	Storage kv.Store

	// Logger for sweep operations.
	Logger zerolog.Logger

	// Clock returns the current wall-clock time (default: time.Now).
	Clock func() time.Time

	// KeyPrefix is the envelope namespace to scan (default: DefaultKeyPrefix).
	KeyPrefix string

	// Interval between background sweeps (default: once per day).
	Interval time.Duration
}

// Sweeper deletes expired progress envelopes. It only removes keys whose
// expiry has already passed, so it is safe to run alongside foreground reads
// and writes. Sweep failures are logged and swallowed.
type Sweeper struct {
	storage   kv.Store
	logger    zerolog.Logger
	clock     func() time.Time
	keyPrefix string
	interval  time.Duration
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Scanned int
	Deleted int
	Errors  int
}

// NewSweeper creates a new expiry sweeper.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		storage:   cfg.Storage,
		logger:    cfg.Logger,
		clock:     clock,
		keyPrefix: keyPrefix,
		interval:  interval,
	}
}

// Sweep scans all envelope keys once and deletes the expired ones.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	var result SweepResult

	keys, err := s.storage.Keys(ctx, s.keyPrefix)
	if err != nil {
		s.logger.Warn().Err(err).Msg("progress sweep could not list keys")
		result.Errors++
		return result
	}

	now := s.clock()
	for _, key := range keys {
		result.Scanned++

		raw, ok, err := s.storage.Get(ctx, key)
		if err != nil {
			result.Errors++
			continue
		}
		if !ok {
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			// Malformed envelopes are dead weight; reap them too.
			if delErr := s.storage.Delete(ctx, key); delErr != nil {
				result.Errors++
				continue
			}
			result.Deleted++
			continue
		}

		if now.After(env.ExpiresAt) {
			if err := s.storage.Delete(ctx, key); err != nil {
				result.Errors++
				continue
			}
			result.Deleted++
		}
	}

	if result.Deleted > 0 || result.Errors > 0 {
		s.logger.Info().
			Int("scanned", result.Scanned).
			Int("deleted", result.Deleted).
			Int("errors", result.Errors).
			Msg("progress envelope sweep completed")
	}

	return result
}

// Run sweeps immediately, then on every interval tick until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
