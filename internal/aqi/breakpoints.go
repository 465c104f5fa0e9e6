package aqi

// Pollutant identifies one of the six pollutants with an EPA breakpoint table.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
	PollutantO3   Pollutant = "o3"
	PollutantNO2  Pollutant = "no2"
	PollutantCO   Pollutant = "co"
	PollutantSO2  Pollutant = "so2"
)

// Pollutants lists all pollutants in the order their sub-indices are combined.
var Pollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantO3,
	PollutantNO2,
	PollutantCO,
	PollutantSO2,
}

// breakpoint maps a concentration range onto an AQI sub-range.
type breakpoint struct {
	cLow    float64
	cHigh   float64
	aqiLow  float64
	aqiHigh float64
}

// breakpoints holds the EPA concentration breakpoint tables. Concentrations
// are µg/m³ except CO, whose table is in ppm (callers convert before lookup).
// Ranges are ascending and non-overlapping; gaps between buckets and values
// above the last bucket saturate to the AQI ceiling.
var breakpoints = map[Pollutant][]breakpoint{
	PollutantPM25: {
		{0, 12, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500, 301, 500},
	},
	PollutantPM10: {
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 604, 301, 500},
	},
	PollutantO3: {
		{0, 54, 0, 50},
		{55, 70, 51, 100},
		{71, 85, 101, 150},
		{86, 105, 151, 200},
		{106, 200, 201, 300},
	},
	PollutantNO2: {
		{0, 53, 0, 50},
		{54, 100, 51, 100},
		{101, 360, 101, 150},
		{361, 649, 151, 200},
		{650, 1249, 201, 300},
		{1250, 2049, 301, 500},
	},
	PollutantCO: {
		{0, 4.4, 0, 50},
		{4.5, 9.4, 51, 100},
		{9.5, 12.4, 101, 150},
		{12.5, 15.4, 151, 200},
		{15.5, 30.4, 201, 300},
		{30.5, 50.4, 301, 500},
	},
	PollutantSO2: {
		{0, 35, 0, 50},
		{36, 75, 51, 100},
		{76, 185, 101, 150},
		{186, 304, 151, 200},
		{305, 604, 201, 300},
		{605, 1004, 301, 500},
	},
}
