package handler

import (
	"net/http"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/aqi"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/weather"
)

// CurrentHandler serves live air quality conditions.
type CurrentHandler struct {
	weather    *weather.Service
	airQuality *airquality.Service
	targets    []collector.Target
}

// NewCurrentHandler creates a new CurrentHandler.
func NewCurrentHandler(weatherSvc *weather.Service, airSvc *airquality.Service, targets []collector.Target) *CurrentHandler {
	return &CurrentHandler{
		weather:    weatherSvc,
		airQuality: airSvc,
		targets:    targets,
	}
}

// GetCurrent handles GET /v1/current - current AQI and conditions for a
// location.
func (h *CurrentHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	loc, err := resolveLocation(r, h.targets)
	if err != nil {
		writeLocationError(w, r, err)
		return
	}

	obs, reading, err := fetchConditions(r.Context(), h.weather, h.airQuality, loc.Lat, loc.Lon)
	if err != nil {
		writeProviderError(w, r, err)
		return
	}

	dominant, overall := aqi.Dominant(reading.PM25, reading.PM10, reading.O3, reading.NO2, reading.CO, reading.SO2)

	conditions := models.CurrentConditions{
		City:              loc.Name,
		Location:          loc.point(),
		AQI:               overall,
		Category:          categoryInfo(overall),
		DominantPollutant: string(dominant),
		Pollutants:        pollutantsFrom(reading),
		Weather:           weatherFrom(obs),
		ObservedAt:        models.Timestamp(reading.ObservedAt),
	}
	response.JSON(w, r, http.StatusOK, conditions)
}
