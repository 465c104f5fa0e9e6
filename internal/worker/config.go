// Package worker provides background job processing for aqicast.
package worker

import (
	"os"
	"strconv"
	"time"

	"github.com/aqicast/aqicast/internal/collector"
)

// CollectConfig holds configuration for the sample collection job.
type CollectConfig struct {
	// Targets are the locations to sample.
	// If empty, uses collector.DefaultTargets.
	Targets []collector.Target

	// Concurrency is the number of concurrent collection operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each target.
	// Default: 30 seconds
	Timeout time.Duration

	// Interval is the pause between scheduled collection runs.
	// Default: 1 hour, the cadence the lag and moving-average
	// features are built on.
	Interval time.Duration
}

// DefaultCollectConfig returns the default collection configuration.
func DefaultCollectConfig() CollectConfig {
	return CollectConfig{
		Targets:     collector.DefaultTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
		Interval:    1 * time.Hour,
	}
}

// CollectConfigFromEnv creates a CollectConfig from environment variables,
// keeping the defaults for anything unset or unparseable.
func CollectConfigFromEnv() CollectConfig {
	cfg := DefaultCollectConfig()

	if v, err := strconv.Atoi(os.Getenv("COLLECT_CONCURRENCY")); err == nil && v > 0 {
		cfg.Concurrency = v
	}
	if d, err := time.ParseDuration(os.Getenv("COLLECT_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("COLLECT_INTERVAL")); err == nil && d > 0 {
		cfg.Interval = d
	}

	return cfg
}

// TotalTargets returns the number of targets to collect.
func (c CollectConfig) TotalTargets() int {
	return len(c.Targets)
}
