// Package weather fetches and caches the current meteorological conditions
// that feed the prediction feature pipeline.
package weather

import (
	"errors"
	"time"
)

var (
	// ErrProviderUnavailable means the provider failed and no stale
	// observation was servable.
	ErrProviderUnavailable = errors.New("weather provider unavailable")

	// ErrInvalidCoordinates means the requested point is outside WGS84
	// bounds.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Observation is an immutable snapshot of surface conditions at a point.
type Observation struct {
	Lat float64
	Lon float64

	Temperature   float64 // °C
	Humidity      float64 // relative, 0-100
	Pressure      float64 // surface pressure, hPa
	WindSpeed     float64 // m/s
	WindDirection float64 // degrees clockwise from north
	Precipitation float64 // mm over the preceding hour

	ObservedAt time.Time // provider's timestamp for the reading
	FetchedAt  time.Time // when we retrieved it
}
