// Package handler provides HTTP handlers for the aqicast API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/predict"
	"github.com/aqicast/aqicast/internal/provider/resilience"
	"github.com/aqicast/aqicast/internal/worker"
)

// readinessTimeout bounds the database ping on readiness checks.
const readinessTimeout = 2 * time.Second

// Pinger reports database connectivity. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	startTime time.Time
	db        Pinger
	registry  *resilience.Registry
	collect   *worker.CollectJob
	flags     *featureflags.Service
	predictor *predict.Service
}

// OpsConfig holds dependencies for the OpsHandler. DB, Registry, Collect and
// Flags are optional; absent subsystems are omitted from status responses.
type OpsConfig struct {
	Version   string
	BuildTime string
	DB        Pinger
	Registry  *resilience.Registry
	Collect   *worker.CollectJob
	Flags     *featureflags.Service
	Predictor *predict.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		startTime: time.Now(),
		db:        cfg.DB,
		registry:  cfg.Registry,
		collect:   cfg.Collect,
		flags:     cfg.Flags,
		predictor: cfg.Predictor,
	}
}

// HealthCheck handles GET /healthz - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /readyz - readiness check. The service is ready
// when the database (if configured) answers a ping and model parameters are
// loaded.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	details := map[string]interface{}{}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status = models.HealthStatusFail
			details["database"] = "unreachable"
		} else {
			details["database"] = "ok"
		}
	}

	if h.predictor == nil || h.predictor.Params() == nil {
		status = models.HealthStatusFail
		details["model"] = "not loaded"
	} else {
		details["model"] = h.predictor.Params().Version
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Health{
		Status:  status,
		Time:    models.Timestamp(time.Now()),
		Details: details,
	})
}

// SystemStatus handles GET /v1/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	overall := models.HealthStatusOK
	subsystems := h.subsystemStatuses(r.Context())
	for _, s := range subsystems {
		if s.Status == models.HealthStatusFail {
			overall = models.HealthStatusFail
		}
	}

	providers := h.providerStatuses()
	if overall == models.HealthStatusOK {
		for _, p := range providers {
			if p.Status != models.HealthStatusOK {
				overall = models.HealthStatusDegraded
				break
			}
		}
	}

	status := models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(time.Now()),
		Version:    h.version,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Subsystems: subsystems,
		Providers:  providers,
	}
	if h.collect != nil {
		status.Collector = h.collect.MetricsSnapshot()
	}
	if h.flags != nil {
		status.ActiveDegradationFlags = h.activeDegradationFlags(r.Context())
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystemStatuses(ctx context.Context) []models.SubsystemStatus {
	var subsystems []models.SubsystemStatus

	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		defer cancel()
		dbStatus := models.SubsystemStatus{Name: "database", Status: models.HealthStatusOK}
		if err := h.db.Ping(pingCtx); err != nil {
			detail := err.Error()
			dbStatus.Status = models.HealthStatusFail
			dbStatus.Detail = &detail
		}
		subsystems = append(subsystems, dbStatus)
	}

	modelStatus := models.SubsystemStatus{Name: "model", Status: models.HealthStatusOK}
	if h.predictor == nil || h.predictor.Params() == nil {
		detail := "parameters not loaded"
		modelStatus.Status = models.HealthStatusFail
		modelStatus.Detail = &detail
	} else {
		version := h.predictor.Params().Version
		modelStatus.Detail = &version
	}
	subsystems = append(subsystems, modelStatus)

	return subsystems
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.registry == nil {
		return nil
	}

	healths := h.registry.GetAllHealth()
	providers := make([]models.ProviderStatus, 0, len(healths))
	for _, ph := range healths {
		status := models.ProviderStatus{
			Provider: ph.Name,
			Status:   models.HealthStatusFail,
		}
		switch {
		case ph.IsHealthy():
			status.Status = models.HealthStatusOK
		case ph.IsDegraded():
			status.Status = models.HealthStatusDegraded
		}
		if ph.LastSuccessAt != nil {
			ts := models.Timestamp(*ph.LastSuccessAt)
			status.LastSuccessAt = &ts
		}
		if ph.LastFailureAt != nil {
			ts := models.Timestamp(*ph.LastFailureAt)
			status.LastFailureAt = &ts
		}
		if ph.LastError != "" {
			msg := ph.LastError
			status.Message = &msg
		}
		providers = append(providers, status)
	}
	return providers
}

func (h *OpsHandler) activeDegradationFlags(ctx context.Context) []string {
	var active []string
	for _, key := range []string{
		featureflags.FlagDisableCollector,
		featureflags.FlagDisableForecast,
		featureflags.FlagDisableDashboard,
	} {
		if h.flags.IsEnabled(ctx, key) {
			active = append(active, key)
		}
	}
	return active
}
