// Package main provides the entrypoint for the aqicast API server.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/airquality"
	openmeteoair "github.com/aqicast/aqicast/internal/airquality/openmeteo"
	"github.com/aqicast/aqicast/internal/api"
	"github.com/aqicast/aqicast/internal/api/middleware"
	"github.com/aqicast/aqicast/internal/auth"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/database"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/history"
	"github.com/aqicast/aqicast/internal/predict"
	"github.com/aqicast/aqicast/internal/provider/resilience"
	"github.com/aqicast/aqicast/internal/telemetry"
	"github.com/aqicast/aqicast/internal/weather"
	openmeteoweather "github.com/aqicast/aqicast/internal/weather/openmeteo"
	"github.com/aqicast/aqicast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "aqicast-api"

	// Optional .env for local runs; environment wins over the file.
	_ = godotenv.Load()

	log := newLogger(serviceName)

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting aqicast API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Error().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("metrics registration failed")
		os.Exit(1) //nolint:gocritic // skips the deferred telemetry flush, fine at boot
	}

	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("provider metrics registration failed")
		os.Exit(1)
	}

	// Connect to database when configured; without one the service runs on
	// in-memory storage, enough for a standalone demo.
	var pool *pgxpool.Pool
	if os.Getenv("DB_ENABLED") == "true" {
		dbConfig := database.ConfigFromEnv()
		pool, err = database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure database schema")
		}

		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		log.Warn().Msg("database disabled - samples and flags are held in memory")
	}

	// Initialize provider registry and clients
	registry := resilience.NewRegistry()

	weatherClient := openmeteoweather.NewClient(openmeteoweather.ClientConfig{
		Registry: registry,
		Logger:   log,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherClient,
		Logger:   log,
		Metrics:  providerMetrics,
	})

	airClient := openmeteoair.NewClient(openmeteoair.ClientConfig{
		Registry: registry,
		Logger:   log,
	})
	airService := airquality.NewService(airquality.ServiceConfig{
		Provider: airClient,
		Logger:   log,
		Metrics:  providerMetrics,
	})
	log.Info().Msg("provider services initialized")

	// Initialize history repository and service
	var historyRepo history.Repository
	if pool != nil {
		historyRepo = history.NewPostgresRepository(pool)
	} else {
		historyRepo = history.NewInMemoryRepository()
	}
	historyService := history.NewService(history.ServiceConfig{
		Repository: historyRepo,
		Logger:     log,
	})

	// Initialize feature flags repository and service
	var flagRepo featureflags.Repository
	if pool != nil {
		flagRepo = featureflags.NewPostgresRepository(pool)
	} else {
		flagRepo = featureflags.NewInMemoryRepository()
	}
	flagService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Load model parameters
	params, err := loadModelParams(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model artifact")
	}

	predictService := predict.NewService(predict.ServiceConfig{
		Params:       params,
		FeatureFlags: flagService,
		Logger:       log,
	})

	// Initialize JWT service for the admin API
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	adminKey := os.Getenv("ADMIN_API_KEY")
	if adminKey == "" {
		log.Warn().Msg("ADMIN_API_KEY not set - admin endpoints are unreachable")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		AdminKey:   adminKey,
		Issuer:     "https://api.aqicast.pk",
		Audience:   "aqicast-api",
	})

	// Initialize collector for admin-triggered runs
	collectorService := collector.NewService(collector.ServiceConfig{
		Weather:      weatherService,
		AirQuality:   airService,
		History:      historyService,
		FeatureFlags: flagService,
		Logger:       log,
	})
	collectJob := worker.NewCollectJob(worker.CollectJobConfig{
		Config:    worker.CollectConfigFromEnv(),
		Logger:    log,
		Collector: collectorService,
		History:   historyService,
	})

	// Create router with configuration
	routerCfg := api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Registry:           registry,
		JWTService:         jwtService,
		WeatherService:     weatherService,
		AirQualityService:  airService,
		HistoryService:     historyService,
		PredictService:     predictService,
		FeatureFlagService: flagService,
		CollectJob:         collectJob,
	}
	if pool != nil {
		routerCfg.DB = pool
	}
	router := api.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", server.Addr).
		Str("model_version", params.Version).
		Msg("server listening")

	if err := serveUntilSignal(server, log); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// serveUntilSignal runs the server until SIGINT or SIGTERM, then drains
// in-flight requests before returning.
func serveUntilSignal(server *http.Server, log zerolog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(drainCtx)
}

// newLogger builds the service logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(serviceName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if os.Getenv("LOG_FORMAT") == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
}

// loadModelParams reads the artifact named by MODEL_PARAMS_PATH, falling
// back to the embedded default so the binary runs without external files.
func loadModelParams(log zerolog.Logger) (*predict.Params, error) {
	if path := os.Getenv("MODEL_PARAMS_PATH"); path != "" {
		params, err := predict.LoadParams(path)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("path", path).
			Str("model_version", params.Version).
			Msg("model artifact loaded")
		return params, nil
	}

	params := predict.DefaultParams()
	log.Info().
		Str("model_version", params.Version).
		Msg("using embedded model artifact")
	return params, nil
}
