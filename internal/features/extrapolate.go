package features

import (
	"math"

	"github.com/aqicast/aqicast/pkg/stat"
)

// Conditions are the twelve raw scalars a feature vector starts from.
type Conditions struct {
	Temperature   float64
	Humidity      float64
	Pressure      float64
	WindSpeed     float64
	WindDirection float64
	Precipitation float64
	PM10          float64
	PM25          float64
	CO            float64
	NO2           float64
	O3            float64
	SO2           float64
}

const (
	// decayRate grows each scaled field per forecast day.
	decayRate = 0.05

	// windShiftPerDay rotates the wind direction per forecast day, in degrees.
	windShiftPerDay = 15.0
)

// Extrapolate projects conditions dayOffset days ahead. Every field except
// wind direction scales by 1 + dayOffset*0.05 and clamps to a plausible
// range; wind direction rotates 15 degrees per day, unscaled. A dayOffset
// of zero or less returns c unchanged.
func Extrapolate(c Conditions, dayOffset int) Conditions {
	if dayOffset <= 0 {
		return c
	}

	scale := 1 + float64(dayOffset)*decayRate

	return Conditions{
		Temperature:   stat.Clamp(c.Temperature*scale, 10, 40),
		Humidity:      stat.Clamp(c.Humidity*scale, 20, 90),
		Pressure:      stat.Clamp(c.Pressure*scale, 1000, 1020),
		WindSpeed:     stat.Clamp(c.WindSpeed*scale, 0, 20),
		WindDirection: math.Mod(c.WindDirection+float64(dayOffset)*windShiftPerDay, 360),
		Precipitation: stat.Clamp(c.Precipitation*scale, 0, 5),
		PM10:          stat.Clamp(c.PM10*scale, 10, 200),
		PM25:          stat.Clamp(c.PM25*scale, 5, 150),
		CO:            stat.Clamp(c.CO*scale, 100, 1500),
		NO2:           stat.Clamp(c.NO2*scale, 10, 80),
		O3:            stat.Clamp(c.O3*scale, 20, 150),
		SO2:           stat.Clamp(c.SO2*scale, 5, 30),
	}
}
