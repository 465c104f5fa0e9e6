// Package history persists hourly air quality samples and serves them
// back as model inputs.
package history

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrSampleNotFound = errors.New("sample not found")
)

// Service errors.
var (
	ErrInvalidSample = errors.New("invalid sample")
	ErrInvalidTarget = errors.New("target is required")
)

// Sample is one collected observation for a target location: the computed
// AQI together with the pollutant and weather values it was derived from.
type Sample struct {
	ID     string
	Target string
	Lat    float64
	Lon    float64

	AQI int

	// Pollutant concentrations in micrograms per cubic meter.
	PM25 float64
	PM10 float64
	O3   float64
	NO2  float64
	CO   float64
	SO2  float64

	Temperature   float64
	Humidity      float64
	Pressure      float64
	WindSpeed     float64
	WindDirection float64
	Precipitation float64

	RecordedAt time.Time
	CreatedAt  time.Time
}
