package predict

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/aqi"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/features"
	"github.com/aqicast/aqicast/internal/weather"
	"github.com/aqicast/aqicast/pkg/stat"
)

// ErrInvalidDays is returned when a forecast horizon is not positive.
var ErrInvalidDays = errors.New("forecast days must be at least 1")

// Positions of pm10 and pm25 in the scaled vector, used by the
// pollutant emphasis adjustment.
const (
	idxPM10 = 6
	idxPM25 = 7
)

// Weights of the pollutant emphasis adjustment, in AQI points per
// standard deviation.
const (
	adjustPM25 = 15.0
	adjustPM10 = 10.0
)

// ServiceConfig holds configuration for the prediction service.
type ServiceConfig struct {
	// Params are the fitted model coefficients.
	Params *Params

	// FeatureFlags is the feature flag service (optional).
	// If provided, the pollutant emphasis adjustment can be toggled at runtime.
	FeatureFlags *featureflags.Service

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service produces AQI forecasts from current conditions.
type Service struct {
	params       *Params
	featureFlags *featureflags.Service
	logger       zerolog.Logger
}

// Prediction is a single-day AQI forecast.
type Prediction struct {
	// Day is the 1-based offset from the forecast time.
	Day int `json:"day"`

	// Date is the timestamp the prediction is for.
	Date time.Time `json:"date"`

	// AQI is the predicted index value, clamped to [0, 500].
	AQI int `json:"aqi"`

	// Category is the EPA category of the predicted value.
	Category aqi.Category `json:"category"`
}

// NewService creates a new prediction service.
func NewService(cfg ServiceConfig) *Service {
	params := cfg.Params
	if params == nil {
		params = DefaultParams()
	}

	return &Service{
		params:       params,
		featureFlags: cfg.FeatureFlags,
		logger:       cfg.Logger,
	}
}

// Params returns the model coefficients the service scores with.
func (s *Service) Params() *Params {
	return s.params
}

// Forecast predicts the AQI for each of the next days, starting one day
// after now. Future conditions are extrapolated from the supplied current
// observation and reading; no history exists for future hours, so the
// trailing-window features stay at their sentinels.
func (s *Service) Forecast(ctx context.Context, w *weather.Observation, r *airquality.Reading, now time.Time, days int) ([]Prediction, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}

	adjust := s.adjustmentEnabled(ctx)

	predictions := make([]Prediction, 0, days)
	for day := 1; day <= days; day++ {
		ts := now.Add(time.Duration(day) * 24 * time.Hour)

		vector := features.Build(w, r, ts, nil, day)
		value, err := s.score(vector, adjust)
		if err != nil {
			return nil, err
		}

		predictions = append(predictions, Prediction{
			Day:      day,
			Date:     ts,
			AQI:      value,
			Category: aqi.Categorize(value),
		})
	}

	s.logger.Debug().
		Int("days", days).
		Bool("pollution_adjustment", adjust).
		Str("model_version", s.params.Version).
		Msg("scored forecast")

	return predictions, nil
}

// Score scales and scores a single feature vector, returning the final
// clamped AQI value.
func (s *Service) Score(ctx context.Context, vector features.Vector) (int, error) {
	return s.score(vector, s.adjustmentEnabled(ctx))
}

func (s *Service) score(vector features.Vector, adjust bool) (int, error) {
	scaled, err := s.params.Scale(vector.Values())
	if err != nil {
		return 0, err
	}

	raw, err := s.params.Score(scaled)
	if err != nil {
		return 0, err
	}

	if adjust {
		raw += scaled[idxPM25]*adjustPM25 + scaled[idxPM10]*adjustPM10
	}

	return int(math.Round(stat.Clamp(raw, 0, float64(aqi.MaxAQI)))), nil
}

// adjustmentEnabled checks the feature flag.
func (s *Service) adjustmentEnabled(ctx context.Context) bool {
	if s.featureFlags == nil {
		return false
	}
	return s.featureFlags.IsPollutionAdjustmentEnabled(ctx)
}
