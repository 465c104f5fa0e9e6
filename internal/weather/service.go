package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider fetches current conditions from an upstream weather API.
type Provider interface {
	// GetCurrentWeather returns the conditions at a point.
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// MetricsRecorder records provider fetch outcomes and cache activity.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig carries the dependencies and cache tuning for NewService.
type ServiceConfig struct {
	// Provider supplies observations.
	Provider Provider

	// Logger records fetch activity. Silent when unset.
	Logger zerolog.Logger

	// Metrics records fetch and cache outcomes (optional).
	Metrics MetricsRecorder

	// CacheTTL bounds how long an observation is served from cache
	// (default: 10m).
	CacheTTL time.Duration

	// CacheGridSize is the cell size in degrees of the lookup grid
	// (default: 0.1). Points in the same cell share one cached
	// observation.
	CacheGridSize float64

	// StaleIfErrorTTL keeps expired observations servable after provider
	// errors (default: 1h).
	StaleIfErrorTTL time.Duration
}

func (cfg *ServiceConfig) applyDefaults() {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.CacheGridSize == 0 {
		cfg.CacheGridSize = 0.1 // ~11km cells at the equator
	}
	if cfg.StaleIfErrorTTL == 0 {
		cfg.StaleIfErrorTTL = time.Hour
	}
}

// Service caches provider observations on a coordinate grid and falls back
// to stale data while the provider is down.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	metrics  MetricsRecorder
	ttl      time.Duration
	gridSize float64
	staleTTL time.Duration

	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	lastSweep  time.Time
	sweepEvery time.Duration
}

// cacheEntry is one grid cell's observation.
type cacheEntry struct {
	obs       *Observation
	fetchedAt time.Time
	expiresAt time.Time
}

// fresh reports whether the entry may be served without refetching.
func (e *cacheEntry) fresh(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cfg.applyDefaults()
	return &Service{
		provider:   cfg.Provider,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		ttl:        cfg.CacheTTL,
		gridSize:   cfg.CacheGridSize,
		staleTTL:   cfg.StaleIfErrorTTL,
		entries:    make(map[string]*cacheEntry),
		sweepEvery: 5 * time.Minute,
	}
}

// GetCurrentWeather returns the current conditions at a point, served from
// cache when the point's grid cell holds a fresh observation.
func (s *Service) GetCurrentWeather(ctx context.Context, lat, lon float64) (*Observation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	key := s.gridKey(lat, lon)
	if obs, ok := s.lookup(key); ok {
		s.recordCacheHit()
		return obs, nil
	}

	s.recordCacheMiss()
	return s.refresh(ctx, lat, lon, key)
}

// lookup returns the cached observation for key if it is still fresh.
func (s *Service) lookup(key string) (*Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[key]; ok && entry.fresh(time.Now()) {
		return entry.obs, true
	}
	return nil, false
}

// refresh fetches from the provider and stores the result. On provider
// failure it serves the previous observation if that is still within the
// stale window.
func (s *Service) refresh(ctx context.Context, lat, lon float64, key string) (*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed this cell while we waited for
	// the write lock.
	if entry, ok := s.entries[key]; ok && entry.fresh(time.Now()) {
		return entry.obs, nil
	}

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("provider", s.provider.Name()).
		Msg("fetching weather from provider")

	start := time.Now()
	obs, err := s.provider.GetCurrentWeather(ctx, lat, lon)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "current_weather", time.Since(start), err)
	}
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("failed to fetch weather")

		if entry, ok := s.entries[key]; ok && time.Since(entry.fetchedAt) < s.staleTTL {
			s.logger.Warn().
				Time("fetched_at", entry.fetchedAt).
				Msg("serving stale weather after provider error")
			return entry.obs, nil
		}
		return nil, ErrProviderUnavailable
	}

	now := time.Now()
	s.entries[key] = &cacheEntry{
		obs:       obs,
		fetchedAt: now,
		expiresAt: now.Add(s.ttl),
	}
	s.sweepLocked()

	return obs, nil
}

func (s *Service) recordCacheHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(s.provider.Name(), "current_weather")
	}
}

func (s *Service) recordCacheMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.provider.Name(), "current_weather")
	}
}

// gridKey buckets coordinates into cells so nearby lookups share one
// cached observation.
func (s *Service) gridKey(lat, lon float64) string {
	cellLat := math.Floor(lat/s.gridSize) * s.gridSize
	cellLon := math.Floor(lon/s.gridSize) * s.gridSize
	return fmt.Sprintf("%.2f:%.2f", cellLat, cellLon)
}

// sweepLocked drops entries too old to serve even on the stale path, at
// most once per sweep interval. Caller holds s.mu.
func (s *Service) sweepLocked() {
	now := time.Now()
	if now.Sub(s.lastSweep) < s.sweepEvery {
		return
	}
	s.lastSweep = now

	dropped := 0
	for key, entry := range s.entries {
		if now.Sub(entry.fetchedAt) > s.staleTTL {
			delete(s.entries, key)
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Debug().
			Int("dropped", dropped).
			Msg("swept expired weather cache entries")
	}
}

// InvalidateCache clears all cached observations.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*cacheEntry)
}

// CacheStats reports the cache's current size and freshness.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := CacheStats{
		Entries:  len(s.entries),
		Provider: s.provider.Name(),
	}
	now := time.Now()
	for _, entry := range s.entries {
		if entry.fresh(now) {
			stats.FreshEntries++
		}
	}
	return stats
}

// CacheStats describes the observation cache.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Provider     string
}

// validateCoordinates rejects points outside WGS84 bounds.
func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
