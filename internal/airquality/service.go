package airquality

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for air quality data providers.
type Provider interface {
	// GetCurrentReading fetches current pollutant concentrations for a location.
	GetCurrentReading(ctx context.Context, lat, lon float64) (*Reading, error)

	// Name returns the provider's name for logging and status reporting.
	Name() string
}

// MetricsRecorder records provider fetch outcomes and cache activity.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records fetch and cache outcomes (optional).
	Metrics MetricsRecorder

	// CacheTTL is how long readings stay fresh (default: 30 minutes).
	CacheTTL time.Duration

	// CacheGridSize rounds coordinates to a grid for cache keys (default: 0.1 degrees).
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale readings on provider errors (default: 2 hours).
	StaleIfErrorTTL time.Duration
}

// Service provides air quality readings with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	metrics         MetricsRecorder
	cacheTTL        time.Duration
	gridSize        float64
	staleIfErrorTTL time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedReading
}

type cachedReading struct {
	reading   *Reading
	expiresAt time.Time
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	gridSize := cfg.CacheGridSize
	if gridSize == 0 {
		gridSize = 0.1
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 2 * time.Hour
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		cacheTTL:        cacheTTL,
		gridSize:        gridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedReading),
	}
}

// GetCurrentReading returns current pollutant concentrations for a location.
// It uses a cached reading if available and not expired.
func (s *Service) GetCurrentReading(ctx context.Context, lat, lon float64) (*Reading, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.cacheKey(lat, lon)

	s.mu.RLock()
	if entry, ok := s.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		reading := entry.reading
		s.mu.RUnlock()
		if s.metrics != nil {
			s.metrics.RecordCacheHit(s.provider.Name(), "current_reading")
		}
		return reading, nil
	}
	s.mu.RUnlock()

	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.provider.Name(), "current_reading")
	}
	return s.fetchReading(ctx, key, lat, lon)
}

// InvalidateCache clears all cached readings.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedReading)
}

// CacheStats returns information about the current cache state.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{
		Entries:  len(s.cache),
		Provider: s.provider.Name(),
	}
	for _, entry := range s.cache {
		if now.Before(entry.expiresAt) {
			stats.FreshEntries++
		}
	}
	return stats
}

// CacheStats represents the current state of the reading cache.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Provider     string
}

// fetchReading fetches a fresh reading from the provider.
func (s *Service) fetchReading(ctx context.Context, key string, lat, lon float64) (*Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check: another goroutine might have fetched while we waited
	if entry, ok := s.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		return entry.reading, nil
	}

	s.logger.Debug().Float64("lat", lat).Float64("lon", lon).Msg("fetching air quality reading")

	start := time.Now()
	reading, err := s.provider.GetCurrentReading(ctx, lat, lon)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "current_reading", time.Since(start), err)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch air quality reading")

		// If we have stale data that's not too old, return it
		if entry, ok := s.cache[key]; ok && time.Now().Before(entry.reading.FetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", entry.reading.FetchedAt).
				Msg("serving stale air quality reading due to provider error")
			return entry.reading, nil
		}

		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s.cache[key] = &cachedReading{
		reading:   reading,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	s.cleanupIfNeeded()

	return reading, nil
}

// cacheKey rounds coordinates to the cache grid.
func (s *Service) cacheKey(lat, lon float64) string {
	gridLat := math.Floor(lat/s.gridSize) * s.gridSize
	gridLon := math.Floor(lon/s.gridSize) * s.gridSize
	return fmt.Sprintf("%.2f:%.2f", gridLat, gridLon)
}

// cleanupIfNeeded evicts expired entries once the cache grows past a
// threshold. Caller must hold the write lock.
func (s *Service) cleanupIfNeeded() {
	const maxEntries = 1000
	if len(s.cache) < maxEntries {
		return
	}

	now := time.Now()
	for key, entry := range s.cache {
		if now.After(entry.expiresAt) {
			delete(s.cache, key)
		}
	}
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: lat=%f lon=%f", ErrInvalidCoordinates, lat, lon)
	}
	return nil
}
