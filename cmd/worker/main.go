// Package main provides the entrypoint for the aqicast collection worker.
package main

import (
	"context"
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
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/database"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/history"
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
	const serviceName = "aqicast-worker"

	// Optional .env for local runs; environment wins over the file.
	_ = godotenv.Load()

	log := newLogger(serviceName)

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting aqicast worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize OpenTelemetry
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to database when configured; without one samples stay in
	// memory and are lost on restart.
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
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		log.Warn().Msg("database disabled - collected samples are held in memory")
	}

	// Initialize provider clients and services
	registry := resilience.NewRegistry()

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: openmeteoweather.NewClient(openmeteoweather.ClientConfig{
			Registry: registry,
			Logger:   log,
		}),
		Logger: log,
	})
	airService := airquality.NewService(airquality.ServiceConfig{
		Provider: openmeteoair.NewClient(openmeteoair.ClientConfig{
			Registry: registry,
			Logger:   log,
		}),
		Logger: log,
	})

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

	collectorService := collector.NewService(collector.ServiceConfig{
		Weather:      weatherService,
		AirQuality:   airService,
		History:      historyService,
		FeatureFlags: flagService,
		Logger:       log,
	})

	collectConfig := worker.CollectConfigFromEnv()
	collectJob := worker.NewCollectJob(worker.CollectJobConfig{
		Config:    collectConfig,
		Logger:    log,
		Collector: collectorService,
		History:   historyService,
	})

	// Scheduled collection loop: one pass now, then one per interval.
	go func() {
		runPass := func() {
			collectJob.Run(ctx)
			if err := collectJob.PruneHistory(ctx); err != nil {
				log.Warn().Err(err).Msg("history pruning failed")
			}
		}

		log.Info().
			Dur("interval", collectConfig.Interval).
			Int("targets", collectConfig.TotalTargets()).
			Msg("collection schedule started")
		runPass()

		ticker := time.NewTicker(collectConfig.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("collection schedule stopped")
				return
			case <-ticker.C:
				runPass()
			}
		}
	}()

	// On-demand collection via Pub/Sub, when a subscription is configured.
	var pubsubHandler *worker.PubSubHandler
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		pubsubHandler, err = worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			CollectJob:       collectJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pubsub handler")
		}

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().Msg("pubsub not configured - running on schedule only")
	}

	// Health endpoint for the orchestrator
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","version":"` + Version + `"}`))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	if pubsubHandler != nil {
		if err := pubsubHandler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub handler")
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
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
