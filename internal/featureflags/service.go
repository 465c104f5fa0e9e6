package featureflags

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig carries the dependencies and tuning for NewService.
type ServiceConfig struct {
	// Repository persists flag values.
	Repository Repository

	// Logger for degraded-path warnings.
	Logger zerolog.Logger

	// CacheTTL bounds how long flags are served from memory (default: 1m).
	CacheTTL time.Duration

	// DefaultFlags overrides the compiled-in defaults (mainly for tests).
	DefaultFlags map[string]*Flag
}

// Service evaluates feature flags with a read-through cache and
// compiled-in defaults for when the repository is unavailable.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	ttl      time.Duration
	defaults map[string]*Flag

	mu        sync.RWMutex
	cache     map[string]*Flag
	expiresAt time.Time
}

// NewService creates a feature flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = time.Minute
	}
	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags()
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		ttl:      ttl,
		defaults: defaults,
		cache:    make(map[string]*Flag),
	}
}

// GetFlag returns the flag for key: from cache while fresh, then the
// repository, then the compiled-in default. Returns nil only for keys
// that are neither stored nor known.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag := s.cached(key); flag != nil {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	if err == nil {
		s.cacheOne(key, flag)
		return flag
	}
	if !errors.Is(err, ErrFlagNotFound) {
		s.logger.Warn().Err(err).Str("flag", key).Msg("feature flag lookup failed")
	}

	return s.defaults[key]
}

// GetAllFlags returns the compiled-in defaults overlaid with every
// stored flag. Repository failures degrade to defaults.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	merged := make(map[string]*Flag, len(s.defaults))
	for k, v := range s.defaults {
		merged[k] = v
	}

	stored, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("feature flag listing failed, serving defaults")
		return merged
	}
	for k, v := range stored {
		merged[k] = v
	}

	s.replaceCache(stored)
	return merged
}

// SetFlag stores one flag and refreshes its cache entry.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	flag.UpdatedAt = time.Now()
	if err := s.repo.SetFlag(ctx, flag); err != nil {
		return err
	}

	s.cacheOne(flag.Key, flag)
	return nil
}

// SetFlags stores a batch of flags and refreshes their cache entries.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	// One timestamp for the whole batch.
	stamp := time.Now()
	for _, flag := range flags {
		flag.UpdatedAt = stamp
	}
	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	s.mu.Lock()
	for _, flag := range flags {
		s.cache[flag.Key] = flag
	}
	s.mu.Unlock()

	return nil
}

// ResetFlag removes the stored value for a flag so reads fall back to
// the compiled-in default. Returns ErrFlagNotFound for unknown keys.
func (s *Service) ResetFlag(ctx context.Context, key string) error {
	if _, ok := s.defaults[key]; !ok {
		return ErrFlagNotFound
	}

	// A flag that was never overridden has nothing stored; that still
	// counts as reset.
	if err := s.repo.DeleteFlag(ctx, key); err != nil && !errors.Is(err, ErrFlagNotFound) {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	return nil
}

// InvalidateCache drops all cached flags so the next read goes to the
// repository.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.expiresAt = time.Time{}
}

// IsEnabled reports whether the flag for key is truthy. Missing flags
// count as disabled.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

// IsDisabled is the inverse of IsEnabled.
func (s *Service) IsDisabled(ctx context.Context, key string) bool {
	return !s.IsEnabled(ctx, key)
}

// cached returns the cache entry for key while the cache is fresh.
func (s *Service) cached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if time.Now().After(s.expiresAt) {
		return nil
	}
	return s.cache[key]
}

// cacheOne stores a single flag, starting a fresh TTL window if the
// cache had expired.
func (s *Service) cacheOne(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = flag
	if s.expiresAt.Before(time.Now()) {
		s.expiresAt = time.Now().Add(s.ttl)
	}
}

// replaceCache swaps the whole cache for the given flag set.
func (s *Service) replaceCache(flags map[string]*Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = flags
	s.expiresAt = time.Now().Add(s.ttl)
}

// Convenience methods for well-known flags.

// IsPollutionAdjustmentEnabled returns true if forecast scores should get
// the pollutant emphasis term.
func (s *Service) IsPollutionAdjustmentEnabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagEnablePollutionAdjustment)
}

// IsCollectorDisabled returns true if scheduled collection is paused.
func (s *Service) IsCollectorDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableCollector)
}

// IsForecastDisabled returns true if forecast endpoints are out of service.
func (s *Service) IsForecastDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableForecast)
}

// IsDashboardDisabled returns true if the HTML dashboard is hidden.
func (s *Service) IsDashboardDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableDashboard)
}
