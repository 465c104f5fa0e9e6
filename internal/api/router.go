// Package api provides the HTTP API for aqicast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/handler"
	"github.com/aqicast/aqicast/internal/api/middleware"
	"github.com/aqicast/aqicast/internal/auth"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/history"
	"github.com/aqicast/aqicast/internal/predict"
	"github.com/aqicast/aqicast/internal/provider/resilience"
	"github.com/aqicast/aqicast/internal/weather"
	"github.com/aqicast/aqicast/internal/worker"
)

// RouterConfig carries everything NewRouter wires into the route tree.
type RouterConfig struct {
	// Build identity, reported by the ops endpoints.
	Version   string
	BuildTime string

	ServiceName string
	Logger      zerolog.Logger
	Metrics     *middleware.Metrics
	DB          handler.Pinger
	Registry    *resilience.Registry
	JWTService  *auth.JWTService

	// Domain services.
	WeatherService     *weather.Service
	AirQualityService  *airquality.Service
	HistoryService     *history.Service
	PredictService     *predict.Service
	FeatureFlagService *featureflags.Service
	CollectJob         *worker.CollectJob

	// Targets overrides the built-in collection targets. Empty means the
	// defaults.
	Targets []collector.Target
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "aqicast-api"
	}

	targets := cfg.Targets
	if len(targets) == 0 {
		targets = collector.DefaultTargets()
	}

	// Global middleware. Order matters: the request ID comes first so the
	// tracer, logger and metrics all see it.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders) // HSTS, CSP, sniffing guards
	r.Use(middleware.RequireTLS)      // no-op unless REQUIRE_TLS=true
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Registry:  cfg.Registry,
		Collect:   cfg.CollectJob,
		Flags:     cfg.FeatureFlagService,
		Predictor: cfg.PredictService,
	})
	authHandler := handler.NewAuthHandler(cfg.JWTService)
	currentHandler := handler.NewCurrentHandler(cfg.WeatherService, cfg.AirQualityService, targets)
	forecastHandler := handler.NewForecastHandler(handler.ForecastConfig{
		Weather:    cfg.WeatherService,
		AirQuality: cfg.AirQualityService,
		Predictor:  cfg.PredictService,
		Flags:      cfg.FeatureFlagService,
		Targets:    targets,
	})
	historyHandler := handler.NewHistoryHandler(cfg.HistoryService, targets)
	featuresHandler := handler.NewFeaturesHandler(cfg.WeatherService, cfg.AirQualityService, cfg.HistoryService, targets)
	modelHandler := handler.NewModelHandler(cfg.PredictService)
	adminHandler := handler.NewAdminHandler(handler.AdminConfig{
		Collect:    cfg.CollectJob,
		Weather:    cfg.WeatherService,
		AirQuality: cfg.AirQualityService,
	})
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)
	dashboardHandler := handler.NewDashboardHandler(handler.DashboardConfig{
		Weather:    cfg.WeatherService,
		AirQuality: cfg.AirQualityService,
		Predictor:  cfg.PredictService,
		Flags:      cfg.FeatureFlagService,
		Targets:    targets,
	})

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.JWTService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// Probes at the root for Cloud Run and load balancer health checks
	r.Get("/healthz", opsHandler.HealthCheck)
	r.Get("/readyz", opsHandler.ReadinessCheck)

	// HTML dashboard
	r.Get("/", dashboardHandler.Render)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/token", authHandler.ExchangeToken)
		})

		// Status endpoint (public)
		r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)

		// Read endpoints - standard rate limiting
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", currentHandler.GetCurrent)
			r.Get("/history", historyHandler.GetHistory)
			r.Get("/model", modelHandler.GetModel)
		})

		// Model-scoring endpoints - expensive compute, strict rate limiting
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Get("/forecast", forecastHandler.GetForecast)
			r.Get("/features", featuresHandler.GetFeatures)
		})

		// Admin endpoints (authenticated) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)

			// Manual collection trigger
			r.Post("/collect", adminHandler.TriggerCollect)

			// Provider cache inspection and flushing
			r.Get("/cache", adminHandler.CacheStatus)
			r.Post("/cache/invalidate", adminHandler.FlushCaches)

			// Feature flags management
			r.Route("/flags", func(r chi.Router) {
				r.Use(middleware.RequireJSON)
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Put("/{name}", featureFlagsHandler.UpdateFeatureFlag)
				r.Delete("/{name}", featureFlagsHandler.ResetFeatureFlag)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
