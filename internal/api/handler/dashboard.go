package handler

import (
	"context"
	_ "embed"
	"html/template"
	"net/http"
	"time"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/aqi"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/predict"
	"github.com/aqicast/aqicast/internal/weather"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// DashboardHandler renders the server-side HTML overview page.
type DashboardHandler struct {
	weather    *weather.Service
	airQuality *airquality.Service
	predictor  *predict.Service
	flags      *featureflags.Service
	targets    []collector.Target
}

// DashboardConfig holds dependencies for the DashboardHandler. Flags is
// optional.
type DashboardConfig struct {
	Weather    *weather.Service
	AirQuality *airquality.Service
	Predictor  *predict.Service
	Flags      *featureflags.Service
	Targets    []collector.Target
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(cfg DashboardConfig) *DashboardHandler {
	return &DashboardHandler{
		weather:    cfg.Weather,
		airQuality: cfg.AirQuality,
		predictor:  cfg.Predictor,
		flags:      cfg.Flags,
		targets:    cfg.Targets,
	}
}

type dashboardDay struct {
	Label    string
	AQI      int
	Category string
	Color    string
}

type dashboardPollutant struct {
	Name  string
	Value float64
}

type dashboardData struct {
	City         string
	AQI          int
	Category     string
	Color        string
	Dominant     string
	Pollutants   []dashboardPollutant
	Temperature  float64
	Humidity     float64
	WindSpeed    float64
	ObservedAt   string
	Days         []dashboardDay
	ModelVersion string
}

// Render handles GET / - the auto-refreshing HTML dashboard.
func (h *DashboardHandler) Render(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.flags != nil && h.flags.IsDashboardDisabled(ctx) {
		response.ServiceUnavailable(w, r, "dashboard is temporarily disabled")
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

	dominant, overall := aqi.Dominant(reading.PM25, reading.PM10, reading.O3, reading.NO2, reading.CO, reading.SO2)
	cat := aqi.Categorize(overall)

	data := dashboardData{
		City:     loc.Name,
		AQI:      overall,
		Category: cat.String(),
		Color:    cat.Color(),
		Dominant: string(dominant),
		Pollutants: []dashboardPollutant{
			{Name: "PM2.5", Value: reading.PM25},
			{Name: "PM10", Value: reading.PM10},
			{Name: "O3", Value: reading.O3},
			{Name: "NO2", Value: reading.NO2},
			{Name: "SO2", Value: reading.SO2},
			{Name: "CO", Value: reading.CO},
		},
		Temperature:  obs.Temperature,
		Humidity:     obs.Humidity,
		WindSpeed:    obs.WindSpeed,
		ObservedAt:   reading.ObservedAt.Format("2 Jan 2006 15:04 MST"),
		ModelVersion: h.predictor.Params().Version,
	}
	data.Days = h.forecastDays(ctx, obs, reading)

	// The dashboard needs its inline styles; everything else from the
	// default policy stays locked down.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if err := dashboardTmpl.Execute(w, data); err != nil {
		// Headers are already sent; nothing sensible left to do.
		return
	}
}

// forecastDays computes the three-day outlook for the dashboard. A disabled
// or failing forecast leaves the section empty rather than breaking the page.
func (h *DashboardHandler) forecastDays(ctx context.Context, obs *weather.Observation, reading *airquality.Reading) []dashboardDay {
	if h.flags != nil && h.flags.IsForecastDisabled(ctx) {
		return nil
	}

	predictions, err := h.predictor.Forecast(ctx, obs, reading, time.Now(), forecastDays)
	if err != nil {
		return nil
	}

	days := make([]dashboardDay, 0, len(predictions))
	for _, p := range predictions {
		cat := aqi.Categorize(p.AQI)
		days = append(days, dashboardDay{
			Label:    p.Date.Format("Mon 2 Jan"),
			AQI:      p.AQI,
			Category: cat.String(),
			Color:    cat.Color(),
		})
	}
	return days
}
