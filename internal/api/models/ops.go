package models

// Health is the liveness/readiness payload.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus is the full status payload: overall state plus
// per-subsystem and per-provider detail.
type SystemStatus struct {
	Status                 HealthStatus           `json:"status"`
	Time                   Timestamp              `json:"time"`
	Version                string                 `json:"version"`
	Uptime                 string                 `json:"uptime"`
	Subsystems             []SubsystemStatus      `json:"subsystems"`
	Providers              []ProviderStatus       `json:"providers"`
	Collector              map[string]interface{} `json:"collector,omitempty"`
	ActiveDegradationFlags []string               `json:"activeDegradationFlags,omitempty"`
}

// SubsystemStatus reports one internal dependency.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// ProviderStatus reports one upstream data provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// CollectRunSummary reports the outcome of an admin-triggered collection run.
type CollectRunSummary struct {
	RunID      string               `json:"runId"`
	StartedAt  Timestamp            `json:"startedAt"`
	Duration   string               `json:"duration"`
	Targets    int                  `json:"targets"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
	Skipped    int                  `json:"skipped"`
	Errors     []CollectErrorDetail `json:"errors,omitempty"`
}

// CollectErrorDetail describes a single failed target within a collection run.
type CollectErrorDetail struct {
	Target string `json:"target"`
	Error  string `json:"error"`
}

// CacheStatus reports the state of the in-memory provider caches.
type CacheStatus struct {
	Weather    *CacheDetail `json:"weather,omitempty"`
	AirQuality *CacheDetail `json:"airQuality,omitempty"`
}

// CacheDetail describes one provider cache.
type CacheDetail struct {
	Provider     string `json:"provider"`
	Entries      int    `json:"entries"`
	FreshEntries int    `json:"freshEntries"`
}
