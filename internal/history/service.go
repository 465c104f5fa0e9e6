package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/aqi"
	"github.com/aqicast/aqicast/internal/features"
)

// Service defaults.
const (
	// DefaultRetention is how long samples are kept.
	DefaultRetention = 90 * 24 * time.Hour

	// DefaultRecentLimit is the sample count served when a caller does
	// not ask for one.
	DefaultRecentLimit = 24

	// MaxWindow is the longest series served to the feature pipeline,
	// seven days of hourly samples.
	MaxWindow = 168
)

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	// Repository is the sample store.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// Retention is how long samples are kept (default: 90 days).
	Retention time.Duration
}

// Service records collected samples and serves them back, both as API
// listings and as feature pipeline windows.
type Service struct {
	repo      Repository
	logger    zerolog.Logger
	retention time.Duration
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) *Service {
	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}

	return &Service{
		repo:      cfg.Repository,
		logger:    cfg.Logger,
		retention: retention,
	}
}

// Record validates and stores a sample, assigning an ID and timestamps
// when missing.
func (s *Service) Record(ctx context.Context, sample *Sample) error {
	if sample.Target == "" {
		return ErrInvalidTarget
	}
	if sample.Lat < -90 || sample.Lat > 90 || sample.Lon < -180 || sample.Lon > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidSample)
	}
	if sample.AQI < 0 || sample.AQI > aqi.MaxAQI {
		return fmt.Errorf("%w: aqi out of range", ErrInvalidSample)
	}

	now := time.Now()
	if sample.ID == "" {
		sample.ID = "obs_" + uuid.New().String()[:22]
	}
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = now
	}
	sample.CreatedAt = now

	if err := s.repo.Insert(ctx, sample); err != nil {
		return err
	}

	s.logger.Debug().
		Str("target", sample.Target).
		Int("aqi", sample.AQI).
		Time("recorded_at", sample.RecordedAt).
		Msg("recorded sample")

	return nil
}

// Recent returns up to limit samples for a target, newest first.
// A non-positive limit falls back to DefaultRecentLimit; limits above
// MaxWindow are capped.
func (s *Service) Recent(ctx context.Context, target string, limit int) ([]*Sample, error) {
	if target == "" {
		return nil, ErrInvalidTarget
	}

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxWindow {
		limit = MaxWindow
	}

	return s.repo.Recent(ctx, target, limit)
}

// Latest returns the most recent sample for a target.
func (s *Service) Latest(ctx context.Context, target string) (*Sample, error) {
	if target == "" {
		return nil, ErrInvalidTarget
	}
	return s.repo.Latest(ctx, target)
}

// Window assembles the trailing sample window for a target as feature
// pipeline input, oldest first. Targets with no samples yield an empty
// history.
func (s *Service) Window(ctx context.Context, target string) (*features.History, error) {
	if target == "" {
		return nil, ErrInvalidTarget
	}

	samples, err := s.repo.Recent(ctx, target, MaxWindow)
	if err != nil {
		return nil, err
	}

	hist := &features.History{
		AQI:      make([]float64, len(samples)),
		Pressure: make([]float64, len(samples)),
	}

	// Recent returns newest first; the pipeline wants oldest first.
	for i, sample := range samples {
		j := len(samples) - 1 - i
		hist.AQI[j] = float64(sample.AQI)
		hist.Pressure[j] = sample.Pressure
	}

	return hist, nil
}

// Prune removes samples older than the retention period.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)

	removed, err := s.repo.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Info().
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("pruned samples beyond retention")
	}

	return removed, nil
}
