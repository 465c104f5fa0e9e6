package resilience_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/aqicast/aqicast/internal/provider/resilience"
)

// mustRequest builds a GET request against the given URL.
func mustRequest(t *testing.T, ctx context.Context, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return req
}

// doGET issues a GET through the client and schedules any response body
// for cleanup.
func doGET(t *testing.T, client *resilience.Client, url string) (*http.Response, error) {
	t.Helper()
	resp, err := client.Do(mustRequest(t, context.Background(), url))
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	return resp, err
}

// fastRetryConfig returns a client config with short backoff intervals
// and a breaker raised high enough to stay closed during retry tests.
func fastRetryConfig(name string, retries uint64) resilience.ClientConfig {
	cb := resilience.DefaultCircuitBreakerConfig(name)
	cb.MinRequests = 100
	return resilience.ClientConfig{
		Name:            name,
		Timeout:         5 * time.Second,
		MaxRetries:      retries,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		CircuitBreaker:  &cb,
	}
}

func TestClient_SuccessfulRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.DefaultClientConfig("happy-path"))

	resp, err := doGET(t, client, server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_RetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := resilience.NewClient(fastRetryConfig("retry-until-ok", 5))

	resp, err := doGET(t, client, server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load(), "two failures then success")
}

func TestClient_ExhaustedRetriesReturnLastResponse(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := resilience.NewClient(fastRetryConfig("exhausted", 2))

	resp, err := doGET(t, client, server.URL)
	require.NoError(t, err, "caller gets the final response, not the retry error")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load(), "initial attempt plus two retries")
}

func TestClient_CircuitBreakerTrips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := resilience.CircuitBreakerConfig{
		Name:             "tripping",
		MaxRequests:      1,
		Timeout:          time.Second,
		MinRequests:      5,
		FailureThreshold: 0.5,
	}
	client := resilience.NewClient(resilience.ClientConfig{
		Name:           "tripping",
		Timeout:        time.Second,
		CircuitBreaker: &cb,
	})

	// Five failing attempts with no retries trip the breaker.
	for i := 0; i < 5; i++ {
		_, _ = doGET(t, client, server.URL)
	}
	require.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())

	_, err := doGET(t, client, server.URL)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestClient_RateLimiterSpacesRequests(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.ClientConfig{
		Name:      "spaced",
		Timeout:   time.Second,
		RateLimit: rate.Limit(20), // 50ms between requests
		RateBurst: 1,
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := doGET(t, client, server.URL)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	elapsed := time.Since(start)

	assert.Equal(t, int32(3), attempts.Load())
	// First request is immediate, the next two wait ~50ms each.
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}

func TestClient_RateLimiterRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	defer server.Close()

	client := resilience.NewClient(resilience.ClientConfig{
		Name:      "starved",
		Timeout:   time.Second,
		RateLimit: rate.Limit(0.01), // one request every 100s
		RateBurst: 1,
	})

	// First request consumes the burst.
	resp, err := doGET(t, client, server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Second request cannot be admitted before its deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.DoWithContext(ctx, mustRequest(t, ctx, server.URL))
	assert.ErrorIs(t, err, resilience.ErrRateLimited)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.ClientConfig{
		Name:    "slow-upstream",
		Timeout: 100 * time.Millisecond,
	})

	resp, err := doGET(t, client, server.URL)
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := resilience.NewClient(resilience.DefaultClientConfig("canceled"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	resp, err := client.DoWithContext(ctx, mustRequest(t, ctx, server.URL))
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestClient_4xxNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := resilience.NewClient(fastRetryConfig("client-error", 3))

	resp, err := doGET(t, client, server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load(), "4xx responses are not retried")
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := resilience.DefaultCircuitBreakerConfig("defaults")

	assert.Equal(t, "defaults", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.InDelta(t, 0.5, cfg.FailureThreshold, 1e-9)
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := resilience.DefaultClientConfig("defaults")

	assert.Equal(t, "defaults", cfg.Name)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(3), cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.MaxInterval)
	assert.Zero(t, cfg.RateLimit, "rate limiting is opt-in")
	require.NotNil(t, cfg.CircuitBreaker)
	assert.Equal(t, "defaults", cfg.CircuitBreaker.Name)
}

func TestClient_LogsBreakerTransitions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := resilience.NewClient(resilience.ClientConfig{
		Name:    "logged",
		Timeout: time.Second,
		Logger:  zerolog.New(&buf),
	})

	for i := 0; i < 5; i++ {
		_, _ = doGET(t, client, server.URL)
	}

	assert.Contains(t, buf.String(), "circuit breaker state changed")
	assert.Contains(t, buf.String(), `"provider":"logged"`)
	assert.Contains(t, buf.String(), `"to":"open"`)
}

func TestServerError(t *testing.T) {
	err := &resilience.ServerError{StatusCode: http.StatusBadGateway}
	assert.Equal(t, "server error: Bad Gateway", err.Error())
}
