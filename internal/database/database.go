// Package database manages the PostgreSQL pool shared by the API and the
// worker, and keeps the schema both depend on in place.
package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the connection and pool settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Pool tuning.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConfigFromEnv builds a Config from DB_* environment variables, falling
// back to local-development defaults. Unparseable values fall back too.
func ConfigFromEnv() Config {
	return Config{
		Host:            envString("DB_HOST", "localhost"),
		Port:            envInt("DB_PORT", 5432),
		User:            envString("DB_USER", "aqicast"),
		Password:        envString("DB_PASSWORD", "localdev"),
		Database:        envString("DB_NAME", "aqicast"),
		SSLMode:         envString("DB_SSL_MODE", "disable"),
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// ConnectionString renders the config as a postgres:// URL.
func (c Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // pool sizes are small
	poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // pool sizes are small
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// schema holds the tables both binaries depend on. Statements are
// idempotent so every start can run them against an existing database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS observations (
		id             TEXT PRIMARY KEY,
		target         TEXT NOT NULL,
		lat            DOUBLE PRECISION NOT NULL,
		lon            DOUBLE PRECISION NOT NULL,
		aqi            INTEGER NOT NULL,
		pm25           DOUBLE PRECISION NOT NULL,
		pm10           DOUBLE PRECISION NOT NULL,
		o3             DOUBLE PRECISION NOT NULL,
		no2            DOUBLE PRECISION NOT NULL,
		co             DOUBLE PRECISION NOT NULL,
		so2            DOUBLE PRECISION NOT NULL,
		temperature    DOUBLE PRECISION NOT NULL,
		humidity       DOUBLE PRECISION NOT NULL,
		pressure       DOUBLE PRECISION NOT NULL,
		wind_speed     DOUBLE PRECISION NOT NULL,
		wind_direction DOUBLE PRECISION NOT NULL,
		precipitation  DOUBLE PRECISION NOT NULL,
		recorded_at    TIMESTAMPTZ NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_target_recorded_at
		ON observations (target, recorded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS feature_flags (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes the repositories expect.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
