package openmeteo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqicast/aqicast/internal/provider/resilience"
	"github.com/aqicast/aqicast/internal/weather/openmeteo"
)

// serveJSON starts a server answering every request with payload.
func serveJSON(t *testing.T, payload map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(baseURL string) *openmeteo.Client {
	return openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})
}

func TestClient_GetCurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("latitude"), "24.8607")
		assert.Contains(t, r.URL.Query().Get("longitude"), "67.0011")
		assert.Equal(t, "temperature_2m,relative_humidity_2m,surface_pressure,wind_speed_10m,wind_direction_10m,precipitation", r.URL.Query().Get("current"))
		assert.Equal(t, "ms", r.URL.Query().Get("wind_speed_unit"))
		assert.Equal(t, "auto", r.URL.Query().Get("timezone"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"latitude":  24.875,
			"longitude": 67.0,
			"current": map[string]interface{}{
				"time":                 "2026-08-25T14:00",
				"temperature_2m":       33.4,
				"relative_humidity_2m": 68.0,
				"surface_pressure":     1002.3,
				"wind_speed_10m":       5.2,
				"wind_direction_10m":   225.0,
				"precipitation":        0.4,
			},
		}))
	}))
	t.Cleanup(server.Close)

	obs, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 24.8607, 67.0011)
	require.NoError(t, err)
	require.NotNil(t, obs)

	assert.Equal(t, 24.875, obs.Lat)
	assert.Equal(t, 67.0, obs.Lon)
	assert.Equal(t, 33.4, obs.Temperature)
	assert.Equal(t, 68.0, obs.Humidity)
	assert.Equal(t, 1002.3, obs.Pressure)
	assert.Equal(t, 5.2, obs.WindSpeed)
	assert.Equal(t, 225.0, obs.WindDirection)
	assert.Equal(t, 0.4, obs.Precipitation)
	assert.Equal(t, time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC), obs.ObservedAt)
	assert.WithinDuration(t, time.Now(), obs.FetchedAt, 5*time.Second)
}

func TestClient_GetCurrentWeather_PartialPayload(t *testing.T) {
	server := serveJSON(t, map[string]interface{}{
		"latitude":  31.5,
		"longitude": 74.375,
		"current": map[string]interface{}{
			"time":           "2026-08-25T09:00",
			"temperature_2m": 29.1,
		},
	})

	obs, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 31.5204, 74.3587)
	require.NoError(t, err)

	// Fields the provider omits decode to zero.
	assert.Equal(t, 29.1, obs.Temperature)
	assert.Equal(t, 0.0, obs.Humidity)
	assert.Equal(t, 0.0, obs.Pressure)
	assert.Equal(t, 0.0, obs.WindSpeed)
	assert.Equal(t, 0.0, obs.Precipitation)
}

func TestClient_GetCurrentWeather_BadTimestamp(t *testing.T) {
	server := serveJSON(t, map[string]interface{}{
		"latitude":  24.875,
		"longitude": 67.0,
		"current": map[string]interface{}{
			"time":           "not-a-timestamp",
			"temperature_2m": 30.0,
		},
	})

	obs, err := newTestClient(server.URL).GetCurrentWeather(context.Background(), 24.8607, 67.0011)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), obs.ObservedAt, 5*time.Second,
		"unparseable timestamps fall back to the fetch time")
}

func TestClient_GetCurrentWeather_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	// One retry keeps the failure path fast.
	cfg := resilience.DefaultClientConfig("test")
	cfg.MaxRetries = 1
	client := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(cfg),
	})

	_, err := client.GetCurrentWeather(context.Background(), 24.8607, 67.0011)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_GetCurrentWeather_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).GetCurrentWeather(ctx, 24.8607, 67.0011)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client := openmeteo.NewClient(openmeteo.ClientConfig{})

	assert.Equal(t, "openmeteo-weather", client.Name())
}
