package models

// CategoryInfo describes the EPA category an AQI value falls in.
type CategoryInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Pollutants carries the six pollutant concentrations in µg/m³.
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
}

// WeatherInfo carries the meteorological readings alongside a sample.
type WeatherInfo struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	Precipitation float64 `json:"precipitation"`
}

// CurrentConditions is the response for the current air quality endpoint.
type CurrentConditions struct {
	City              string       `json:"city,omitempty"`
	Location          Point        `json:"location"`
	AQI               int          `json:"aqi"`
	Category          CategoryInfo `json:"category"`
	DominantPollutant string       `json:"dominantPollutant"`
	Pollutants        Pollutants   `json:"pollutants"`
	Weather           WeatherInfo  `json:"weather"`
	ObservedAt        Timestamp    `json:"observedAt"`
}

// ForecastDay is one predicted day within a forecast.
type ForecastDay struct {
	DayOffset int          `json:"dayOffset"`
	Date      string       `json:"date"`
	AQI       int          `json:"aqi"`
	Category  CategoryInfo `json:"category"`
}

// ForecastResponse is the response for the three-day forecast endpoint.
// The day1_aqi through day3_aqi keys are the stable contract consumed by
// existing clients; Days carries the same values with category detail.
type ForecastResponse struct {
	City         string        `json:"city,omitempty"`
	Location     Point         `json:"location"`
	Day1AQI      int           `json:"day1_aqi"`
	Day2AQI      int           `json:"day2_aqi"`
	Day3AQI      int           `json:"day3_aqi"`
	Days         []ForecastDay `json:"days"`
	ModelVersion string        `json:"modelVersion"`
	GeneratedAt  Timestamp     `json:"generatedAt"`
}
