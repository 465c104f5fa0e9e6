package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/collector"
)

// Job types accepted on the collect subscription.
const (
	JobTypeCollect     = "collect"
	JobTypePrune       = "prune"
	JobTypeHealthCheck = "health_check"
)

// Receive settings for the collect subscription. Collection passes can
// outlive the default ack deadline, so extensions run long.
const (
	maxOutstandingMessages = 10
	maxAckExtension        = 10 * time.Minute
)

// errUnknownJob marks messages whose job type nobody handles. They are
// acked, since redelivery cannot fix them.
var errUnknownJob = errors.New("unknown job type")

// PubSubHandler consumes collection jobs from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	collectJob       *CollectJob
	logger           zerolog.Logger
}

// PubSubConfig holds the wiring for NewPubSubHandler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	CollectJob       *CollectJob
	Logger           zerolog.Logger
}

// CollectMessage is the payload the scheduler publishes per job.
type CollectMessage struct {
	JobType string `json:"job_type"`

	// Targets restricts a collect job to the named slugs.
	// Empty means all configured targets.
	Targets []string `json:"targets,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("connecting to pubsub: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = maxOutstandingMessages
	subscriber.ReceiveSettings.MaxExtension = maxAckExtension

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		collectJob:       cfg.CollectJob,
		logger:           cfg.Logger,
	}, nil
}

// Start receives messages until ctx is canceled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("listening for collection jobs")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close shuts down the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	start := time.Now()
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	var job CollectMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	err := h.dispatch(ctx, job)
	switch {
	case errors.Is(err, errUnknownJob):
		logger.Warn().Str("job_type", job.JobType).Msg("dropping unknown job type")
		msg.Ack()
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	default:
		logger.Info().
			Str("job_type", job.JobType).
			Dur("duration", time.Since(start)).
			Msg("job completed")
		msg.Ack()
	}
}

// dispatch runs the job the message names.
func (h *PubSubHandler) dispatch(ctx context.Context, msg CollectMessage) error {
	switch msg.JobType {
	case JobTypeCollect:
		return h.runCollect(ctx, msg)
	case JobTypePrune:
		return h.collectJob.PruneHistory(ctx)
	case JobTypeHealthCheck:
		return h.runHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", errUnknownJob, msg.JobType)
	}
}

func (h *PubSubHandler) runCollect(ctx context.Context, msg CollectMessage) error {
	job := h.collectJob
	if len(msg.Targets) > 0 {
		job = h.filteredJob(msg.Targets)
	}

	result := job.Run(ctx)

	// Enforce retention alongside scheduled collections.
	if err := job.PruneHistory(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("history pruning failed")
	}

	// Partial failure is tolerated; redeliver only when most targets failed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many collection failures: %d/%d", result.Failed, result.TotalTargets)
	}

	return nil
}

// filteredJob builds a job restricted to the requested target slugs,
// sharing the services and metrics of the main job.
func (h *PubSubHandler) filteredJob(slugs []string) *CollectJob {
	config := h.collectJob.config
	var targets []collector.Target
	for _, slug := range slugs {
		if target, ok := collector.FindTarget(config.Targets, slug); ok {
			targets = append(targets, target)
		} else {
			h.logger.Warn().Str("target", slug).Msg("unknown collection target requested")
		}
	}
	config.Targets = targets

	return &CollectJob{
		config:    config,
		logger:    h.collectJob.logger,
		collector: h.collectJob.collector,
		history:   h.collectJob.history,
		metrics:   h.collectJob.metrics,
	}
}

func (h *PubSubHandler) runHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Collect a single target to verify provider connectivity.
	targets := h.collectJob.config.Targets
	if len(targets) == 0 {
		targets = collector.DefaultTargets()
	}

	probe := NewCollectJob(CollectJobConfig{
		Config: CollectConfig{
			Targets:     targets[:1],
			Concurrency: 1,
			Timeout:     10 * time.Second,
		},
		Logger:    h.logger,
		Collector: h.collectJob.collector,
	})

	result := probe.Run(ctx)
	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
