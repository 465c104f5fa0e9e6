package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/history"
)

// CollectJob runs sample collection passes over the configured targets.
type CollectJob struct {
	config    CollectConfig
	logger    zerolog.Logger
	collector *collector.Service

	// History (optional, nil if retention pruning is not configured)
	history *history.Service

	// Metrics
	metrics *CollectMetrics
}

// CollectMetrics tracks collection job statistics.
type CollectMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns         int64
	SuccessfulSamples int64
	FailedSamples     int64
	SkippedSamples    int64
	PrunedSamples     int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// CollectJobConfig holds configuration for creating a CollectJob.
type CollectJobConfig struct {
	Config    CollectConfig
	Logger    zerolog.Logger
	Collector *collector.Service
	History   *history.Service
}

// NewCollectJob creates a new collection job processor.
func NewCollectJob(cfg CollectJobConfig) *CollectJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = collector.DefaultTargets()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultCollectConfig().Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultCollectConfig().Timeout
	}
	if config.Interval <= 0 {
		config.Interval = DefaultCollectConfig().Interval
	}

	return &CollectJob{
		config:    config,
		logger:    cfg.Logger,
		collector: cfg.Collector,
		history:   cfg.History,
		metrics:   &CollectMetrics{},
	}
}

// Config returns the effective job configuration.
func (j *CollectJob) Config() CollectConfig {
	return j.config
}

// CollectResult contains the result of one collection pass.
type CollectResult struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTargets int
	Successful   int
	Failed       int
	Skipped      int
	Errors       []CollectError
}

// CollectError represents a failed target within a run.
type CollectError struct {
	Target string
	Error  string
}

// Run executes one collection pass over all configured targets.
func (j *CollectJob) Run(ctx context.Context) *CollectResult {
	startTime := time.Now()
	result := &CollectResult{
		RunID:        uuid.New().String(),
		StartTime:    startTime,
		TotalTargets: j.config.TotalTargets(),
	}

	logger := j.logger.With().Str("run_id", result.RunID).Logger()

	logger.Info().
		Int("total_targets", result.TotalTargets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting collection run")

	// Create work channels
	targetsChan := make(chan collector.Target, len(j.config.Targets))
	resultsChan := make(chan targetResult, len(j.config.Targets))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.collectWorker(ctx, targetsChan, resultsChan)
		}()
	}

	// Send targets to workers
	for _, target := range j.config.Targets {
		targetsChan <- target
	}
	close(targetsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for tr := range resultsChan {
		switch {
		case tr.err == nil:
			result.Successful++
		case errors.Is(tr.err, collector.ErrCollectorDisabled):
			// Paused by feature flag, not a failure
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, CollectError{
				Target: tr.target.Slug,
				Error:  tr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("collection run completed")

	return result
}

type targetResult struct {
	target collector.Target
	err    error
}

func (j *CollectJob) collectWorker(ctx context.Context, targets <-chan collector.Target, results chan<- targetResult) {
	for target := range targets {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.collectTarget(ctx, target)
		}
	}
}

func (j *CollectJob) collectTarget(ctx context.Context, target collector.Target) targetResult {
	// Create timeout context for this target
	targetCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.collector.Collect(targetCtx, target)
	return targetResult{target: target, err: err}
}

// PruneHistory removes samples older than the history retention window.
// Pruning is independent of target geography, so it runs once per pass.
func (j *CollectJob) PruneHistory(ctx context.Context) error {
	if j.history == nil {
		return nil
	}

	j.logger.Debug().Msg("pruning stored samples")

	removed, err := j.history.Prune(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to prune stored samples")
		return err
	}

	atomic.AddInt64(&j.metrics.PrunedSamples, removed)
	return nil
}

func (j *CollectJob) updateMetrics(result *CollectResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulSamples += int64(result.Successful)
	j.metrics.FailedSamples += int64(result.Failed)
	j.metrics.SkippedSamples += int64(result.Skipped)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *CollectJob) GetMetrics() CollectMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return CollectMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		SuccessfulSamples: j.metrics.SuccessfulSamples,
		FailedSamples:     j.metrics.FailedSamples,
		SkippedSamples:    j.metrics.SkippedSamples,
		PrunedSamples:     atomic.LoadInt64(&j.metrics.PrunedSamples),
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		TotalDuration:     j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *CollectJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":         m.TotalRuns,
		"successful_samples": m.SuccessfulSamples,
		"failed_samples":     m.FailedSamples,
		"skipped_samples":    m.SkippedSamples,
		"pruned_samples":     m.PrunedSamples,
		"last_run_at":        m.LastRunAt,
		"last_run_duration":  m.LastRunDuration.String(),
		"total_duration":     m.TotalDuration.String(),
	}
}
