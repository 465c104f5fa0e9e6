package models

// HistorySample is one stored hourly observation.
type HistorySample struct {
	RecordedAt Timestamp    `json:"recordedAt"`
	AQI        int          `json:"aqi"`
	Category   CategoryInfo `json:"category"`
	Pollutants Pollutants   `json:"pollutants"`
	Weather    WeatherInfo  `json:"weather"`
}

// HistoryResponse is the response for the stored history endpoint.
// Samples are ordered newest first.
type HistoryResponse struct {
	City    string          `json:"city"`
	Hours   int             `json:"hours"`
	Count   int             `json:"count"`
	Samples []HistorySample `json:"samples"`
}
