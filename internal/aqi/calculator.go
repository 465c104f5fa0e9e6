// Package aqi computes EPA Air Quality Index values from raw pollutant
// concentrations using piecewise-linear breakpoint interpolation.
package aqi

import (
	"math"
)

const (
	// MaxAQI is the ceiling of the AQI scale. Concentrations that match no
	// breakpoint bucket saturate here rather than erroring.
	MaxAQI = 500

	// coMicrogramsPerPPM converts CO from µg/m³ to ppm before table lookup.
	coMicrogramsPerPPM = 1145
)

// SubIndex computes the AQI sub-index for a single pollutant concentration
// in µg/m³. The bucket containing the concentration is located and the AQI
// interpolated linearly across it. Concentrations outside every bucket,
// above the table or inside a gap, return MaxAQI.
func SubIndex(p Pollutant, concentration float64) int {
	c := concentration
	if p == PollutantCO {
		c /= coMicrogramsPerPPM
	}

	for _, bp := range breakpoints[p] {
		if c >= bp.cLow && c <= bp.cHigh {
			aqi := (bp.aqiHigh-bp.aqiLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + bp.aqiLow
			return int(math.Round(aqi))
		}
	}
	return MaxAQI
}

// Calculate computes the overall AQI for a set of concentrations (µg/m³).
// Per EPA convention the worst pollutant dominates: the result is the
// maximum of the six sub-indices, an integer in [0, MaxAQI].
func Calculate(pm25, pm10, o3, no2, co, so2 float64) int {
	_, overall := Dominant(pm25, pm10, o3, no2, co, so2)
	return overall
}

// Dominant returns the pollutant whose sub-index sets the overall AQI,
// along with that AQI. Ties go to the earlier pollutant in Pollutants.
func Dominant(pm25, pm10, o3, no2, co, so2 float64) (Pollutant, int) {
	concentrations := map[Pollutant]float64{
		PollutantPM25: pm25,
		PollutantPM10: pm10,
		PollutantO3:   o3,
		PollutantNO2:  no2,
		PollutantCO:   co,
		PollutantSO2:  so2,
	}

	dominant := Pollutants[0]
	overall := 0
	for _, p := range Pollutants {
		if sub := SubIndex(p, concentrations[p]); sub > overall {
			dominant = p
			overall = sub
		}
	}
	return dominant, overall
}
