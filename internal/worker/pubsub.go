package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	sweepJob         *SweepJob
	warmupJob        *WarmupJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	SweepJob         *SweepJob
	WarmupJob        *WarmupJob
	Logger           zerolog.Logger
}

// JobMessage represents a background job message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		sweepJob:         cfg.SweepJob,
		warmupJob:        cfg.WarmupJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch jobMsg.JobType {
	case "progress_sweep":
		err = h.handleProgressSweep(ctx)
	case "cache_warmup":
		err = h.handleCacheWarmup(ctx)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleProgressSweep(ctx context.Context) error {
	if h.sweepJob == nil {
		return fmt.Errorf("sweep job not configured")
	}

	result := h.sweepJob.Run(ctx)
	if result.Errors > 0 && result.Deleted == 0 && result.Scanned == 0 {
		return fmt.Errorf("progress sweep failed: %d errors", result.Errors)
	}
	return nil
}

func (h *PubSubHandler) handleCacheWarmup(ctx context.Context) error {
	if h.warmupJob == nil {
		return fmt.Errorf("warmup job not configured")
	}

	result := h.warmupJob.Run(ctx)

	// Consider it successful if more than half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many warmup failures: %d/%d", result.Failed, result.TotalPoints)
	}
	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	if h.warmupJob == nil {
		return nil
	}

	// Warm a single point to verify the directory is reachable.
	singlePointConfig := WarmupConfig{
		Targets: []WarmupTarget{
			{
				Name:     "health-check",
				Priority: 1,
				Points:   []Point{{Lat: 22.6011, Lon: 88.3721}}, // Shyambazar
			},
		},
		Concurrency: 1,
		Timeout:     10 * time.Second,
		RadiusKm:    1,
		WarmNearby:  true,
		WarmRoutes:  false, // Skip route warmup for health check
	}

	healthCheckJob := NewWarmupJob(WarmupJobConfig{
		Config: singlePointConfig,
		Logger: h.logger,
		Nearby: h.warmupJob.nearby,
	})

	result := healthCheckJob.Run(ctx)

	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
