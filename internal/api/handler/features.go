package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/features"
	"github.com/aqicast/aqicast/internal/history"
	"github.com/aqicast/aqicast/internal/weather"
)

// maxFeatureDayOffset matches the forecast horizon.
const maxFeatureDayOffset = 3

// FeaturesHandler exposes the assembled model input vector for inspection.
type FeaturesHandler struct {
	weather    *weather.Service
	airQuality *airquality.Service
	history    *history.Service
	targets    []collector.Target
}

// NewFeaturesHandler creates a new FeaturesHandler.
func NewFeaturesHandler(weatherSvc *weather.Service, airSvc *airquality.Service, historySvc *history.Service, targets []collector.Target) *FeaturesHandler {
	return &FeaturesHandler{
		weather:    weatherSvc,
		airQuality: airSvc,
		history:    historySvc,
		targets:    targets,
	}
}

// GetFeatures handles GET /v1/features - the feature vector the model would
// score for a location and day offset.
func (h *FeaturesHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	loc, err := resolveLocation(r, h.targets)
	if err != nil {
		writeLocationError(w, r, err)
		return
	}

	dayOffset := 0
	if raw := r.URL.Query().Get("day_offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > maxFeatureDayOffset {
			response.BadRequest(w, r, "invalid day_offset parameter", []models.FieldError{
				{Field: "day_offset", Message: "must be an integer between 0 and 3", Code: "OUT_OF_RANGE"},
			})
			return
		}
		dayOffset = parsed
	}

	obs, reading, err := fetchConditions(r.Context(), h.weather, h.airQuality, loc.Lat, loc.Lon)
	if err != nil {
		writeProviderError(w, r, err)
		return
	}

	// Offset vectors mirror the forecast path: extrapolated conditions at
	// the future timestamp, trailing-window features at their sentinels.
	// Only the current-day vector sees stored history.
	ts := time.Now().Add(time.Duration(dayOffset) * 24 * time.Hour)
	var hist *features.History
	if dayOffset == 0 && h.history != nil && loc.Slug != "" {
		if window, err := h.history.Window(r.Context(), loc.Slug); err == nil {
			hist = window
		}
	}

	vector := features.Build(obs, reading, ts, hist, dayOffset)
	values := vector.Values()

	named := make([]models.FeatureValue, 0, len(values))
	for i, name := range features.Names {
		named = append(named, models.FeatureValue{Name: name, Value: values[i]})
	}

	response.JSON(w, r, http.StatusOK, models.FeatureVectorResponse{
		City:      loc.Name,
		Location:  loc.point(),
		DayOffset: dayOffset,
		Features:  named,
	})
}
