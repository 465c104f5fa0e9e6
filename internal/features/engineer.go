package features

import (
	"math"
	"time"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/aqi"
	"github.com/aqicast/aqicast/internal/weather"
	"github.com/aqicast/aqicast/pkg/stat"
)

// Sentinel values substituted when history is missing or too short. The
// model was trained with these placeholders, not with zeros.
const (
	sentinelAQI      = 100.0
	standardPressure = 1013.25
)

// Rolling-mean window sizes in samples, matching the training pipeline.
const (
	windowMA3h  = 72
	windowMA6h  = 144
	windowMA12h = 288
	windowMA24h = 576
)

// pressureWindow is the trailing sample count for the pressure stability std.
const pressureWindow = 6

// Build assembles the feature vector describing a location at ts.
//
// dayOffset selects extrapolation for forward-looking forecasts: 0 uses
// the readings as-is, N>=1 applies Extrapolate first. hist supplies the
// trailing hourly series; nil or empty history fills the historical
// features with their sentinels. Build never fails: zero-valued inputs
// produce a well-formed vector.
func Build(w *weather.Observation, r *airquality.Reading, ts time.Time, hist *History, dayOffset int) Vector {
	if w == nil {
		w = &weather.Observation{}
	}
	if r == nil {
		r = &airquality.Reading{}
	}

	c := Conditions{
		Temperature:   w.Temperature,
		Humidity:      w.Humidity,
		Pressure:      w.Pressure,
		WindSpeed:     w.WindSpeed,
		WindDirection: w.WindDirection,
		Precipitation: w.Precipitation,
		PM10:          r.PM10,
		PM25:          r.PM25,
		CO:            r.CO,
		NO2:           r.NO2,
		O3:            r.O3,
		SO2:           r.SO2,
	}
	if dayOffset > 0 {
		c = Extrapolate(c, dayOffset)
	}

	v := Vector{
		Temperature:   c.Temperature,
		Humidity:      c.Humidity,
		Pressure:      c.Pressure,
		WindSpeed:     c.WindSpeed,
		WindDirection: c.WindDirection,
		Precipitation: c.Precipitation,
		PM10:          c.PM10,
		PM25:          c.PM25,
		CO:            c.CO,
		NO2:           c.NO2,
		O3:            c.O3,
		SO2:           c.SO2,
	}

	applyTimeFeatures(&v, ts)
	applyHistoryFeatures(&v, hist)
	applyInteractions(&v, c, hist)

	if dayOffset == 0 {
		// Category of the current reading; unknown while forecasting.
		v.AQICategoryEncoded = float64(aqi.Categorize(r.AQI()))
	}

	return v
}

func applyTimeFeatures(v *Vector, ts time.Time) {
	hour := float64(ts.Hour())
	month := float64(int(ts.Month()))
	weekday := (int(ts.Weekday()) + 6) % 7 // Monday=0

	v.Hour = hour
	v.Day = float64(ts.Day())
	v.Month = month
	v.Weekday = float64(weekday)
	if weekday >= 5 {
		v.IsWeekend = 1
	}

	v.HourSin = math.Sin(2 * math.Pi * hour / 24)
	v.HourCos = math.Cos(2 * math.Pi * hour / 24)
	v.MonthSin = math.Sin(2 * math.Pi * month / 12)
	v.MonthCos = math.Cos(2 * math.Pi * month / 12)

	v.SeasonEncoded = float64(season(ts.Month()))
}

func applyHistoryFeatures(v *Vector, hist *History) {
	if hist.Empty() {
		v.AQIMA3h = sentinelAQI
		v.AQIMA6h = sentinelAQI
		v.AQIMA12h = sentinelAQI
		v.AQIMA24h = sentinelAQI
		v.AQILag1h = sentinelAQI
		v.AQILag3h = sentinelAQI
		v.AQILag6h = sentinelAQI
		return
	}

	series := hist.AQI

	v.AQIChange1h = change(series, 1)
	v.AQIChange3h = change(series, 3)
	v.AQIChange6h = change(series, 6)

	v.AQIMA3h = windowMean(series, windowMA3h)
	v.AQIMA6h = windowMean(series, windowMA6h)
	v.AQIMA12h = windowMean(series, windowMA12h)
	v.AQIMA24h = windowMean(series, windowMA24h)

	// The serving pipeline keeps no per-lag lookup; every lag takes the
	// most recent sample.
	last := series[len(series)-1]
	v.AQILag1h = last
	v.AQILag3h = last
	v.AQILag6h = last
}

func applyInteractions(v *Vector, c Conditions, hist *History) {
	v.TempHumidityInteraction = c.Temperature * c.Humidity

	// The +1 keeps the ratio finite at pm25 == 0.
	v.WindPollutionRatio = c.WindSpeed / (c.PM25 + 1)

	if hist != nil && len(hist.Pressure) >= pressureWindow {
		v.PressureStability = stat.Std(stat.Tail(hist.Pressure, pressureWindow))
	} else {
		v.PressureStability = math.Abs(c.Pressure - standardPressure)
	}
}

// change returns newest minus the sample k positions earlier, or 0 when
// the series is too short.
func change(series []float64, k int) float64 {
	n := len(series)
	if n <= k {
		return 0
	}
	return series[n-1] - series[n-1-k]
}

// windowMean averages the trailing window samples, or returns the
// sentinel when fewer exist.
func windowMean(series []float64, window int) float64 {
	if len(series) < window {
		return sentinelAQI
	}
	return stat.Mean(stat.Tail(series, window))
}

// season maps a month to 0..3: winter, spring, summer, autumn.
func season(m time.Month) int {
	switch m {
	case time.December, time.January, time.February:
		return 0
	case time.March, time.April, time.May:
		return 1
	case time.June, time.July, time.August:
		return 2
	default:
		return 3
	}
}
