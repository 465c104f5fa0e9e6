package handler

import (
	"net/http"
	"strconv"

	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/history"
)

const (
	// defaultHistoryHours is the window returned when the request does not
	// specify one.
	defaultHistoryHours = 24

	// maxHistoryHours caps the window at one week of hourly samples.
	maxHistoryHours = 168
)

// HistoryHandler serves stored hourly observations.
type HistoryHandler struct {
	history *history.Service
	targets []collector.Target
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historySvc *history.Service, targets []collector.Target) *HistoryHandler {
	return &HistoryHandler{
		history: historySvc,
		targets: targets,
	}
}

// GetHistory handles GET /v1/history - recent stored samples for a city,
// newest first.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		city = h.targets[0].Slug
	}
	target, ok := collector.FindTarget(h.targets, city)
	if !ok {
		response.NotFound(w, r, "unknown city")
		return
	}

	hours := defaultHistoryHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, r, "invalid hours parameter", []models.FieldError{
				{Field: "hours", Message: "must be a positive integer", Code: "OUT_OF_RANGE"},
			})
			return
		}
		hours = parsed
	}
	if hours > maxHistoryHours {
		hours = maxHistoryHours
	}

	samples, err := h.history.Recent(r.Context(), target.Slug, hours)
	if err != nil {
		response.InternalError(w, r, "failed to load history")
		return
	}

	items := make([]models.HistorySample, 0, len(samples))
	for _, s := range samples {
		items = append(items, models.HistorySample{
			RecordedAt: models.Timestamp(s.RecordedAt),
			AQI:        s.AQI,
			Category:   categoryInfo(s.AQI),
			Pollutants: models.Pollutants{
				PM25: s.PM25,
				PM10: s.PM10,
				O3:   s.O3,
				NO2:  s.NO2,
				SO2:  s.SO2,
				CO:   s.CO,
			},
			Weather: models.WeatherInfo{
				Temperature:   s.Temperature,
				Humidity:      s.Humidity,
				Pressure:      s.Pressure,
				WindSpeed:     s.WindSpeed,
				WindDirection: s.WindDirection,
				Precipitation: s.Precipitation,
			},
		})
	}

	response.JSON(w, r, http.StatusOK, models.HistoryResponse{
		City:    target.Slug,
		Hours:   hours,
		Count:   len(items),
		Samples: items,
	})
}
