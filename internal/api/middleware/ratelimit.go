package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/aqicast/aqicast/internal/api/models"
)

// RateLimitConfig sets how many requests one client may make per window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Rate limit tiers applied across the router.
var (
	// AuthRateLimit guards credential endpoints.
	AuthRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// ExpensiveRateLimit guards endpoints that fan out to providers or the model.
	ExpensiveRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}

	// StandardRateLimit is the default tier for read endpoints.
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP. The key honors X-Forwarded-For
// via httprate's real-IP resolution, so it composes with chi's RealIP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	// httprate does not expose the exact reset time, so Retry-After
	// advertises a full window.
	retryAfter := strconv.Itoa(int(cfg.WindowLength / time.Second))

	limitHandler := func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(
			GetRequestID(r.Context()),
			"Rate limit exceeded. Please try again later.",
		)
		problem.Instance = r.URL.Path

		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitHandler),
	)
}
