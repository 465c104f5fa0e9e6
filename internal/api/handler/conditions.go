package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/weather"
)

// fetchConditions retrieves the weather observation and air quality reading
// for a location. Both fetches hit the service caches first, so repeated
// dashboard and API traffic does not multiply upstream calls.
func fetchConditions(ctx context.Context, weatherSvc *weather.Service, airSvc *airquality.Service, lat, lon float64) (*weather.Observation, *airquality.Reading, error) {
	obs, err := weatherSvc.GetCurrentWeather(ctx, lat, lon)
	if err != nil {
		return nil, nil, err
	}
	reading, err := airSvc.GetCurrentReading(ctx, lat, lon)
	if err != nil {
		return nil, nil, err
	}
	return obs, reading, nil
}

// writeProviderError maps upstream fetch failures to problem responses.
func writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, weather.ErrProviderUnavailable), errors.Is(err, airquality.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "upstream data providers are unavailable")
	case errors.Is(err, weather.ErrInvalidCoordinates), errors.Is(err, airquality.ErrInvalidCoordinates):
		response.BadRequest(w, r, "coordinates rejected by provider", nil)
	default:
		response.InternalError(w, r, "failed to fetch current conditions")
	}
}
