// Package airquality provides pollutant concentration data access and caching.
package airquality

import (
	"errors"
	"time"

	"github.com/aqicast/aqicast/internal/aqi"
)

// Provider errors.
var (
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Reading represents pollutant concentrations at a location at one point
// in time. All values are micrograms per cubic meter.
type Reading struct {
	Lat float64
	Lon float64

	PM25 float64
	PM10 float64
	O3   float64
	NO2  float64
	CO   float64
	SO2  float64

	// ObservedAt is the provider's measurement timestamp.
	ObservedAt time.Time

	// FetchedAt is when this reading was retrieved from the provider.
	FetchedAt time.Time
}

// AQI computes the overall air quality index for this reading.
func (r *Reading) AQI() int {
	return aqi.Calculate(r.PM25, r.PM10, r.O3, r.NO2, r.CO, r.SO2)
}

// Category returns the health category for this reading's AQI.
func (r *Reading) Category() aqi.Category {
	return aqi.Categorize(r.AQI())
}
