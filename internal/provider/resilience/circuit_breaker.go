// Package resilience wraps outbound HTTP to external data providers with
// retries, circuit breaking, and client-side rate limiting.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig holds configuration for a provider circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker for logging and status reporting.
	Name string

	// MaxRequests is the number of probe requests allowed in half-open state.
	// Default: 1
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed.
	// Default: 0 (disabled)
	Interval time.Duration

	// Timeout is the open-state duration before switching to half-open.
	// Default: 60 seconds
	Timeout time.Duration

	// MinRequests is the number of requests that must be observed before the
	// breaker can trip. Default: 5
	MinRequests uint32

	// FailureThreshold is the failure ratio at or above which the breaker
	// trips, once MinRequests have been observed. Default: 0.5
	FailureThreshold float64

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the default breaker configuration.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         0,
		Timeout:          60 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.5,
	}
}

// NewCircuitBreaker creates a circuit breaker from the given configuration.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && ratio >= threshold
		},
	}

	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
