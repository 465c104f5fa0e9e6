package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/aqicast/aqicast/internal/api/middleware"

// Metrics bundles the request-level instruments for the HTTP server.
type Metrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	respSize metric.Int64Histogram
}

// NewMetrics registers the HTTP server instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}

	var err error
	m.duration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("request duration histogram: %w", err)
	}

	m.total, err = meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("request counter: %w", err)
	}

	m.inFlight, err = meter.Int64UpDownCounter(
		"http.server.requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("in-flight counter: %w", err)
	}

	m.respSize, err = meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP server responses in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("response size histogram: %w", err)
	}

	return m, nil
}

// Middleware measures duration, count, in-flight requests and response size
// for every request passing through it.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			// The route only resolves once chi has matched, so the
			// in-flight counter is keyed by method alone.
			inFlight := metric.WithAttributes(attribute.String("http.method", r.Method))
			m.inFlight.Add(ctx, 1, inFlight)
			defer m.inFlight.Add(ctx, -1, inFlight)

			rec := record(w)
			next.ServeHTTP(rec, r)

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routePattern(r)),
				attribute.Int("http.status_code", rec.status),
			}
			if rec.status >= http.StatusBadRequest {
				attrs = append(attrs, attribute.Bool("error", true))
			}

			opt := metric.WithAttributes(attrs...)
			m.duration.Record(ctx, time.Since(start).Seconds(), opt)
			m.total.Add(ctx, 1, opt)
			m.respSize.Record(ctx, rec.bytes, opt)
		})
	}
}

// routePattern reports the matched chi route, falling back to the raw path
// for requests not served through a chi router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// ProviderMetrics instruments outbound calls to upstream data providers.
// The provider name is an attribute rather than part of the instrument
// name, so a single instance serves every upstream.
type ProviderMetrics struct {
	duration  metric.Float64Histogram
	total     metric.Int64Counter
	cacheHit  metric.Float64Counter
	cacheMiss metric.Float64Counter
}

// NewProviderMetrics registers the provider instruments on the global meter.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)
	pm := &ProviderMetrics{}

	var err error
	pm.duration, err = meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("provider duration histogram: %w", err)
	}

	pm.total, err = meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("provider request counter: %w", err)
	}

	pm.cacheHit, err = meter.Float64Counter(
		"provider.cache.hit",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("cache hit counter: %w", err)
	}

	pm.cacheMiss, err = meter.Float64Counter(
		"provider.cache.miss",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("cache miss counter: %w", err)
	}

	return pm, nil
}

// providerAttrs is the attribute set shared by all provider instruments.
func providerAttrs(provider, operation string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	)
}

// RecordRequest records the outcome of one provider call. Measurements use
// a background context because the request context may already be canceled
// by the time the call returns.
func (m *ProviderMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	ctx := context.Background()
	opt := metric.WithAttributes(attrs...)
	m.duration.Record(ctx, duration.Seconds(), opt)
	m.total.Add(ctx, 1, opt)
}

// RecordCacheHit counts a cache hit for one provider operation.
func (m *ProviderMetrics) RecordCacheHit(provider, operation string) {
	m.cacheHit.Add(context.Background(), 1, providerAttrs(provider, operation))
}

// RecordCacheMiss counts a cache miss for one provider operation.
func (m *ProviderMetrics) RecordCacheMiss(provider, operation string) {
	m.cacheMiss.Add(context.Background(), 1, providerAttrs(provider, operation))
}
