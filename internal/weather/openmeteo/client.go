// Package openmeteo provides a weather client for the Open-Meteo forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/provider/resilience"
	"github.com/aqicast/aqicast/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openmeteo-weather"

	// DefaultBaseURL is the Open-Meteo forecast API base URL.
	DefaultBaseURL = "https://api.open-meteo.com/v1"

	// currentFields are the current-conditions variables requested per call.
	currentFields = "temperature_2m,relative_humidity_2m,surface_pressure,wind_speed_10m,wind_direction_10m,precipitation"

	// timeLayout is the minute-resolution timestamp format Open-Meteo returns.
	timeLayout = "2006-01-02T15:04"
)

// ClientConfig holds configuration for the Open-Meteo weather client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to Open-Meteo).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger records circuit breaker state changes (optional).
	Logger zerolog.Logger
}

// Client is an Open-Meteo forecast API client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
}

// NewClient creates a new Open-Meteo weather client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Logger = cfg.Logger
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrentWeather fetches current weather for a location.
// Wind speed is requested in m/s so no unit conversion happens client-side.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	url := fmt.Sprintf("%s/forecast?latitude=%.4f&longitude=%.4f&current=%s&wind_speed_unit=ms&timezone=auto",
		c.baseURL, lat, lon, currentFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching current weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo returned status %d", resp.StatusCode)
	}

	var omResp currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&omResp); err != nil {
		return nil, fmt.Errorf("decoding forecast response: %w", err)
	}

	return c.toObservation(&omResp), nil
}

// toObservation converts an Open-Meteo response to the domain model.
// Fields the provider omits decode to zero values.
func (c *Client) toObservation(resp *currentResponse) *weather.Observation {
	observedAt, err := time.Parse(timeLayout, resp.Current.Time)
	if err != nil {
		observedAt = time.Now()
	}

	return &weather.Observation{
		Lat:           resp.Latitude,
		Lon:           resp.Longitude,
		Temperature:   resp.Current.Temperature,
		Humidity:      resp.Current.Humidity,
		Pressure:      resp.Current.Pressure,
		WindSpeed:     resp.Current.WindSpeed,
		WindDirection: resp.Current.WindDirection,
		Precipitation: resp.Current.Precipitation,
		ObservedAt:    observedAt,
		FetchedAt:     time.Now(),
	}
}

// Open-Meteo API response structures.

type currentResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Current   currentData `json:"current"`
}

type currentData struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature_2m"`
	Humidity      float64 `json:"relative_humidity_2m"`
	Pressure      float64 `json:"surface_pressure"`
	WindSpeed     float64 `json:"wind_speed_10m"`
	WindDirection float64 `json:"wind_direction_10m"`
	Precipitation float64 `json:"precipitation"`
}
