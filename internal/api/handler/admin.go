package handler

import (
	"net/http"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/weather"
	"github.com/aqicast/aqicast/internal/worker"
)

// AdminHandler handles authenticated operational actions.
type AdminHandler struct {
	collect    *worker.CollectJob
	weather    *weather.Service
	airQuality *airquality.Service
}

// AdminConfig holds dependencies for the AdminHandler.
type AdminConfig struct {
	Collect    *worker.CollectJob
	Weather    *weather.Service
	AirQuality *airquality.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	return &AdminHandler{
		collect:    cfg.Collect,
		weather:    cfg.Weather,
		airQuality: cfg.AirQuality,
	}
}

// TriggerCollect handles POST /v1/admin/collect - run a collection cycle
// synchronously and report the outcome.
func (h *AdminHandler) TriggerCollect(w http.ResponseWriter, r *http.Request) {
	if h.collect == nil {
		response.ServiceUnavailable(w, r, "collector is not configured")
		return
	}

	result := h.collect.Run(r.Context())

	errorDetails := make([]models.CollectErrorDetail, 0, len(result.Errors))
	for _, e := range result.Errors {
		errorDetails = append(errorDetails, models.CollectErrorDetail{
			Target: e.Target,
			Error:  e.Error,
		})
	}

	summary := models.CollectRunSummary{
		RunID:      result.RunID,
		StartedAt:  models.Timestamp(result.StartTime),
		Duration:   result.Duration.String(),
		Targets:    result.TotalTargets,
		Successful: result.Successful,
		Failed:     result.Failed,
		Skipped:    result.Skipped,
		Errors:     errorDetails,
	}
	response.JSON(w, r, http.StatusOK, summary)
}

// CacheStatus handles GET /v1/admin/cache - report size and freshness of
// the provider caches.
func (h *AdminHandler) CacheStatus(w http.ResponseWriter, r *http.Request) {
	var status models.CacheStatus
	if h.weather != nil {
		stats := h.weather.CacheStats()
		status.Weather = &models.CacheDetail{
			Provider:     stats.Provider,
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
		}
	}
	if h.airQuality != nil {
		stats := h.airQuality.CacheStats()
		status.AirQuality = &models.CacheDetail{
			Provider:     stats.Provider,
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
		}
	}
	response.JSON(w, r, http.StatusOK, status)
}

// FlushCaches handles POST /v1/admin/cache/invalidate - drop all cached
// provider data so the next reads go upstream.
func (h *AdminHandler) FlushCaches(w http.ResponseWriter, r *http.Request) {
	if h.weather != nil {
		h.weather.InvalidateCache()
	}
	if h.airQuality != nil {
		h.airQuality.InvalidateCache()
	}
	response.NoContent(w, r)
}
