// Package collector assembles observation samples from the upstream
// providers and records them as history.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/aqi"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/history"
	"github.com/aqicast/aqicast/internal/weather"
)

// ErrCollectorDisabled is returned when collection is paused by feature flag.
var ErrCollectorDisabled = errors.New("collector is disabled by feature flag")

// Target is a location the collector samples.
type Target struct {
	// Slug identifies the target in storage and the API.
	Slug string

	// Name is the human-readable name.
	Name string

	Lat float64
	Lon float64
}

// ServiceConfig holds configuration for the collector service.
type ServiceConfig struct {
	// Weather provides current weather observations.
	Weather *weather.Service

	// AirQuality provides current pollutant readings.
	AirQuality *airquality.Service

	// History stores collected samples.
	History *history.Service

	// FeatureFlags is the feature flag service (optional).
	// If provided, collection can be paused via feature flag.
	FeatureFlags *featureflags.Service

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service collects one sample per target: the current weather observation
// and pollutant reading, with the AQI computed from them.
type Service struct {
	weather      *weather.Service
	airQuality   *airquality.Service
	history      *history.Service
	featureFlags *featureflags.Service
	logger       zerolog.Logger
}

// NewService creates a new collector service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		weather:      cfg.Weather,
		airQuality:   cfg.AirQuality,
		history:      cfg.History,
		featureFlags: cfg.FeatureFlags,
		logger:       cfg.Logger,
	}
}

// Collect fetches current conditions for a target, computes its AQI, and
// records the combined sample.
// Returns ErrCollectorDisabled if collection is paused via feature flag.
func (s *Service) Collect(ctx context.Context, target Target) (*history.Sample, error) {
	if s.collectorDisabled(ctx) {
		s.logger.Debug().Msg("collection paused by feature flag")
		return nil, ErrCollectorDisabled
	}

	obs, err := s.weather.GetCurrentWeather(ctx, target.Lat, target.Lon)
	if err != nil {
		return nil, fmt.Errorf("fetching weather for %s: %w", target.Slug, err)
	}

	reading, err := s.airQuality.GetCurrentReading(ctx, target.Lat, target.Lon)
	if err != nil {
		return nil, fmt.Errorf("fetching air quality for %s: %w", target.Slug, err)
	}

	sample := &history.Sample{
		Target:        target.Slug,
		Lat:           target.Lat,
		Lon:           target.Lon,
		AQI:           reading.AQI(),
		PM25:          reading.PM25,
		PM10:          reading.PM10,
		O3:            reading.O3,
		NO2:           reading.NO2,
		CO:            reading.CO,
		SO2:           reading.SO2,
		Temperature:   obs.Temperature,
		Humidity:      obs.Humidity,
		Pressure:      obs.Pressure,
		WindSpeed:     obs.WindSpeed,
		WindDirection: obs.WindDirection,
		Precipitation: obs.Precipitation,
	}

	if err := s.history.Record(ctx, sample); err != nil {
		return nil, fmt.Errorf("recording sample for %s: %w", target.Slug, err)
	}

	s.logger.Info().
		Str("target", target.Slug).
		Int("aqi", sample.AQI).
		Str("category", aqi.Categorize(sample.AQI).String()).
		Msg("collected sample")

	return sample, nil
}

// collectorDisabled checks the feature flag.
func (s *Service) collectorDisabled(ctx context.Context) bool {
	if s.featureFlags == nil {
		return false
	}
	return s.featureFlags.IsCollectorDisabled(ctx)
}
