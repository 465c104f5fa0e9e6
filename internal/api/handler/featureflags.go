package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/featureflags"
)

// FeatureFlagsHandler serves the admin endpoints for runtime flags.
type FeatureFlagsHandler struct {
	service *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

// ListFeatureFlags handles GET /v1/admin/flags - list every flag, sorted
// by key.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	keys := make([]string, 0, len(flags))
	for key := range flags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]featureflags.Flag, 0, len(keys))
	for _, key := range keys {
		items = append(items, *flags[key])
	}
	response.JSON(w, r, http.StatusOK, featureflags.FlagList{Items: items})
}

// UpdateFeatureFlag handles PUT /v1/admin/flags/{name} - set a single flag.
func (h *FeatureFlagsHandler) UpdateFeatureFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !knownFlag(name) {
		response.NotFound(w, r, "unknown feature flag")
		return
	}

	var req struct {
		Value interface{} `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Value == nil {
		response.BadRequest(w, r, "value is required", []models.FieldError{
			{Field: "value", Message: "must be present", Code: "REQUIRED"},
		})
		return
	}

	if err := h.service.SetFlag(r.Context(), &featureflags.Flag{Key: name, Value: req.Value}); err != nil {
		response.InternalError(w, r, "failed to update flag")
		return
	}

	response.JSON(w, r, http.StatusOK, h.service.GetFlag(r.Context(), name))
}

// UpsertFeatureFlags handles PUT /v1/admin/flags - update several flags in
// one call.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req featureflags.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(req.Updates) == 0 {
		response.BadRequest(w, r, "updates is required", []models.FieldError{
			{Field: "updates", Message: "must contain at least one entry", Code: "REQUIRED"},
		})
		return
	}

	var fieldErrors []models.FieldError
	flags := make([]*featureflags.Flag, 0, len(req.Updates))
	for _, update := range req.Updates {
		if !knownFlag(update.Key) {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: "updates", Message: "unknown flag: " + update.Key, Code: "UNKNOWN",
			})
			continue
		}
		flags = append(flags, &featureflags.Flag{Key: update.Key, Value: update.Value})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrors)
		return
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		response.InternalError(w, r, "failed to update flags")
		return
	}

	response.NoContent(w, r)
}

// ResetFeatureFlag handles DELETE /v1/admin/flags/{name} - drop the stored
// value so the flag reverts to its default.
func (h *FeatureFlagsHandler) ResetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.service.ResetFlag(r.Context(), name); err != nil {
		if errors.Is(err, featureflags.ErrFlagNotFound) {
			response.NotFound(w, r, "unknown feature flag")
			return
		}
		response.InternalError(w, r, "failed to reset flag")
		return
	}

	response.NoContent(w, r)
}

// InvalidateCache handles POST /v1/admin/flags/invalidate - drop the flag
// cache so the next read hits the repository.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}

// knownFlag reports whether a key is one of the registered flags. Admin
// writes are restricted to the registered set so typos do not create
// orphaned entries.
func knownFlag(key string) bool {
	_, ok := featureflags.DefaultFlags()[key]
	return ok
}
