package handler

import (
	"net/http"
	"time"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/predict"
	"github.com/aqicast/aqicast/internal/weather"
)

// forecastDays is the number of days every forecast covers.
const forecastDays = 3

// ForecastHandler serves the three-day AQI forecast.
type ForecastHandler struct {
	weather    *weather.Service
	airQuality *airquality.Service
	predictor  *predict.Service
	flags      *featureflags.Service
	targets    []collector.Target
}

// ForecastConfig holds dependencies for the ForecastHandler. Flags is
// optional.
type ForecastConfig struct {
	Weather    *weather.Service
	AirQuality *airquality.Service
	Predictor  *predict.Service
	Flags      *featureflags.Service
	Targets    []collector.Target
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(cfg ForecastConfig) *ForecastHandler {
	return &ForecastHandler{
		weather:    cfg.Weather,
		airQuality: cfg.AirQuality,
		predictor:  cfg.Predictor,
		flags:      cfg.Flags,
		targets:    cfg.Targets,
	}
}

// GetForecast handles GET /v1/forecast - predicted AQI for the next three
// days.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.flags != nil && h.flags.IsForecastDisabled(ctx) {
		response.ServiceUnavailable(w, r, "forecasts are temporarily disabled")
		return
	}

	loc, err := resolveLocation(r, h.targets)
	if err != nil {
		writeLocationError(w, r, err)
		return
	}

	obs, reading, err := fetchConditions(ctx, h.weather, h.airQuality, loc.Lat, loc.Lon)
	if err != nil {
		writeProviderError(w, r, err)
		return
	}

	predictions, err := h.predictor.Forecast(ctx, obs, reading, time.Now(), forecastDays)
	if err != nil {
		response.InternalError(w, r, "forecast computation failed")
		return
	}

	days := make([]models.ForecastDay, 0, len(predictions))
	for _, p := range predictions {
		days = append(days, models.ForecastDay{
			DayOffset: p.Day,
			Date:      p.Date.Format("2006-01-02"),
			AQI:       p.AQI,
			Category:  categoryInfo(p.AQI),
		})
	}

	forecast := models.ForecastResponse{
		City:         loc.Name,
		Location:     loc.point(),
		Day1AQI:      predictions[0].AQI,
		Day2AQI:      predictions[1].AQI,
		Day3AQI:      predictions[2].AQI,
		Days:         days,
		ModelVersion: h.predictor.Params().Version,
		GeneratedAt:  models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, forecast)
}
