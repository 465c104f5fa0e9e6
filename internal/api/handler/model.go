package handler

import (
	"net/http"

	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/predict"
)

// ModelHandler serves metadata about the loaded regression artifact.
type ModelHandler struct {
	predictor *predict.Service
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(predictor *predict.Service) *ModelHandler {
	return &ModelHandler{predictor: predictor}
}

// GetModel handles GET /v1/model - version and shape of the loaded model.
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	params := h.predictor.Params()
	if params == nil {
		response.ServiceUnavailable(w, r, "model parameters are not loaded")
		return
	}

	info := models.ModelInfo{
		Version:      params.Version,
		TrainedAt:    models.Timestamp(params.TrainedAt),
		FeatureCount: len(params.FeatureNames),
		FeatureNames: params.FeatureNames,
		Intercept:    params.Intercept,
	}
	response.JSON(w, r, http.StatusOK, info)
}
