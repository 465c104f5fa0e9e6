// Package openmeteo provides a client for the Open-Meteo air quality API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the Open-Meteo air quality API.
	DefaultBaseURL = "https://air-quality-api.open-meteo.com/v1"

	// ProviderName identifies this provider.
	ProviderName = "openmeteo-airquality"

	// currentFields are the pollutant variables requested per call.
	currentFields = "pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone"

	// timeLayout is the minute-resolution timestamp format Open-Meteo returns.
	timeLayout = "2006-01-02T15:04"
)

// Fallback concentrations used when the provider omits a pollutant.
// These sit near typical urban background levels.
const (
	defaultPM10 = 50.0
	defaultPM25 = 25.0
	defaultCO   = 500.0
	defaultNO2  = 30.0
	defaultO3   = 60.0
	defaultSO2  = 15.0
)

// ClientConfig holds configuration for the Open-Meteo air quality client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger records circuit breaker state changes (optional).
	Logger zerolog.Logger

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an Open-Meteo air quality API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Open-Meteo air quality client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         cfg.Timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Logger:          cfg.Logger,
			Registry:        cfg.Registry,
		})
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

// GetCurrentReading fetches current pollutant concentrations for a location.
// Pollutants the provider omits fall back to typical urban levels.
func (c *Client) GetCurrentReading(ctx context.Context, lat, lon float64) (*airquality.Reading, error) {
	url := fmt.Sprintf("%s/air-quality?latitude=%.4f&longitude=%.4f&current=%s&timezone=auto",
		c.baseURL, lat, lon, currentFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building air quality request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching air quality: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo returned status %d", resp.StatusCode)
	}

	var aqResp currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&aqResp); err != nil {
		return nil, fmt.Errorf("decoding air quality response: %w", err)
	}

	return c.toReading(&aqResp), nil
}

func (c *Client) toReading(resp *currentResponse) *airquality.Reading {
	observedAt, err := time.Parse(timeLayout, resp.Current.Time)
	if err != nil {
		observedAt = time.Now()
	}

	return &airquality.Reading{
		Lat:        resp.Latitude,
		Lon:        resp.Longitude,
		PM25:       valueOr(resp.Current.PM25, defaultPM25),
		PM10:       valueOr(resp.Current.PM10, defaultPM10),
		O3:         valueOr(resp.Current.Ozone, defaultO3),
		NO2:        valueOr(resp.Current.NO2, defaultNO2),
		CO:         valueOr(resp.Current.CO, defaultCO),
		SO2:        valueOr(resp.Current.SO2, defaultSO2),
		ObservedAt: observedAt,
		FetchedAt:  time.Now(),
	}
}

// valueOr distinguishes an omitted field from a measured zero.
func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// API response types (from the Open-Meteo air quality API).

type currentResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Current   currentData `json:"current"`
}

type currentData struct {
	Time  string   `json:"time"`
	PM10  *float64 `json:"pm10"`
	PM25  *float64 `json:"pm2_5"`
	CO    *float64 `json:"carbon_monoxide"`
	NO2   *float64 `json:"nitrogen_dioxide"`
	SO2   *float64 `json:"sulphur_dioxide"`
	Ozone *float64 `json:"ozone"`
}
