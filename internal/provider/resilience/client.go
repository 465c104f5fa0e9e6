package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrRateLimited is returned when the client-side rate limiter cannot
	// admit the request before its context expires.
	ErrRateLimited = errors.New("client rate limit exceeded")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming and
	// registry lookups.
	Name string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first try.
	// Zero means a single attempt with no retries.
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// RateLimit caps outbound requests per second to the provider.
	// Zero disables client-side rate limiting.
	RateLimit rate.Limit

	// RateBurst is the rate limiter burst size. Default: 1 when RateLimit
	// is set.
	RateBurst int

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Logger records circuit breaker state changes. Silent when unset.
	Logger zerolog.Logger

	// Registry, when set, receives this client on construction so its
	// breaker state and fetch outcomes show up on the status endpoint.
	Registry *Registry
}

func (cfg *ClientConfig) applyDefaults() {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.CircuitBreaker == nil {
		cb := DefaultCircuitBreakerConfig(cfg.Name)
		cfg.CircuitBreaker = &cb
	}
}

// DefaultClientConfig returns a ClientConfig suitable for most providers:
// a 10s timeout, three retries, and the default circuit breaker.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &breaker,
	}
}

// Client wraps http.Client with a circuit breaker, exponential-backoff
// retries, and an optional client-side rate limiter.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	limiter    *rate.Limiter
	config     ClientConfig
}

// NewClient creates a resilient HTTP client and, when cfg.Registry is
// set, registers it for health reporting.
func NewClient(cfg ClientConfig) *Client {
	cfg.applyDefaults()

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}

	cbCfg := *cfg.CircuitBreaker
	if cbCfg.OnStateChange == nil {
		cbCfg.OnStateChange = logStateChanges(cfg.Logger)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    NewCircuitBreaker[*http.Response](cbCfg), //nolint:bodyclose // type param, not a response
		limiter:    limiter,
		config:     cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}

	return c
}

// logStateChanges returns an OnStateChange callback that logs breaker
// transitions. A zero-value logger makes it a no-op.
func logStateChanges(logger zerolog.Logger) func(string, gobreaker.State, gobreaker.State) {
	return func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("provider", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}
}

// Name returns the provider name this client was configured with.
func (c *Client) Name() string {
	return c.config.Name
}

// Do executes an HTTP request with rate limiting, circuit breaker
// protection, and retry logic. Transient failures (5xx, network errors)
// are retried with exponential backoff; an open circuit fails fast with
// ErrCircuitOpen.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastResp *http.Response

	operation := func() error {
		resp, err := c.try(ctx, req)
		if resp != nil {
			// Keep a 5xx response around in case retries exhaust.
			lastResp = resp
		}
		return err
	}

	err := backoff.Retry(operation, c.newBackOff(ctx))
	c.report(err)

	if err != nil && lastResp == nil {
		return nil, err
	}
	return lastResp, nil
}

// try performs a single attempt: pay the rate limiter, then run the
// request through the circuit breaker. 5xx responses come back with a
// *ServerError so they count against the breaker and get retried.
func (c *Client) try(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(ErrRateLimited)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
		r, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			return r, &ServerError{StatusCode: r.StatusCode}
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, backoff.Permanent(ErrCircuitOpen)
	}
	return resp, err
}

// newBackOff builds the per-call retry policy: exponential backoff
// bounded by MaxRetries and the request context rather than elapsed time.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)
}

// report records the call outcome with the registry, when one was
// configured.
func (c *Client) report(err error) {
	if c.config.Registry == nil {
		return
	}
	if err != nil {
		c.config.Registry.RecordFailure(c.config.Name, err)
		return
	}
	c.config.Registry.RecordSuccess(c.config.Name)
}

// ServerError marks a 5xx response so retries and the breaker treat it
// as a failure.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the breaker's current state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the breaker's current counts.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}
