package features_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/features"
	"github.com/aqicast/aqicast/internal/weather"
)

func testWeather() *weather.Observation {
	return &weather.Observation{
		Temperature:   32.0,
		Humidity:      65.0,
		Pressure:      1005.0,
		WindSpeed:     5.0,
		WindDirection: 225.0,
		Precipitation: 0.4,
	}
}

func testReading() *airquality.Reading {
	return &airquality.Reading{
		PM25: 88.5,
		PM10: 142.0,
		O3:   74.0,
		NO2:  41.2,
		CO:   612.0,
		SO2:  18.9,
	}
}

// A Tuesday afternoon in August.
var testTime = time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

func TestBuild_NamesMatchVectorSize(t *testing.T) {
	require.Len(t, features.Names, features.VectorSize)

	v := features.Build(testWeather(), testReading(), testTime, nil, 0)
	assert.Len(t, v.Values(), features.VectorSize)
}

func TestBuild_VectorLengthWithAndWithoutHistory(t *testing.T) {
	hist := &features.History{
		AQI:      []float64{120, 130, 140},
		Pressure: []float64{1004, 1005, 1006},
	}

	with := features.Build(testWeather(), testReading(), testTime, hist, 0)
	without := features.Build(testWeather(), testReading(), testTime, nil, 0)

	assert.Len(t, with.Values(), features.VectorSize)
	assert.Len(t, without.Values(), features.VectorSize)
}

func TestBuild_CopiesReadingsVerbatim(t *testing.T) {
	v := features.Build(testWeather(), testReading(), testTime, nil, 0)

	assert.Equal(t, 32.0, v.Temperature)
	assert.Equal(t, 65.0, v.Humidity)
	assert.Equal(t, 1005.0, v.Pressure)
	assert.Equal(t, 5.0, v.WindSpeed)
	assert.Equal(t, 225.0, v.WindDirection)
	assert.Equal(t, 0.4, v.Precipitation)
	assert.Equal(t, 142.0, v.PM10)
	assert.Equal(t, 88.5, v.PM25)
	assert.Equal(t, 612.0, v.CO)
	assert.Equal(t, 41.2, v.NO2)
	assert.Equal(t, 74.0, v.O3)
	assert.Equal(t, 18.9, v.SO2)
}

func TestBuild_TimeFeatures(t *testing.T) {
	v := features.Build(testWeather(), testReading(), testTime, nil, 0)

	assert.Equal(t, 14.0, v.Hour)
	assert.Equal(t, 25.0, v.Day)
	assert.Equal(t, 8.0, v.Month)
	assert.Equal(t, 1.0, v.Weekday) // Tuesday, Monday=0
	assert.Equal(t, 0.0, v.IsWeekend)
	assert.Equal(t, 2.0, v.SeasonEncoded) // August is summer

	assert.InDelta(t, -0.5, v.HourSin, 1e-9)          // sin(2pi*14/24)
	assert.InDelta(t, -0.8660254038, v.HourCos, 1e-9) // cos(2pi*14/24)
	assert.InDelta(t, -0.8660254038, v.MonthSin, 1e-9)
	assert.InDelta(t, -0.5, v.MonthCos, 1e-9)
}

func TestBuild_CyclicalEncodings(t *testing.T) {
	tests := []struct {
		hour    int
		wantSin float64
		wantCos float64
	}{
		{0, 0.0, 1.0},
		{6, 1.0, 0.0},
		{12, 0.0, -1.0},
		{18, -1.0, 0.0},
	}

	for _, tt := range tests {
		ts := time.Date(2026, 8, 25, tt.hour, 0, 0, 0, time.UTC)
		v := features.Build(testWeather(), testReading(), ts, nil, 0)

		assert.InDelta(t, tt.wantSin, v.HourSin, 1e-9, "hour %d sin", tt.hour)
		assert.InDelta(t, tt.wantCos, v.HourCos, 1e-9, "hour %d cos", tt.hour)
	}
}

func TestBuild_WeekdayAndWeekend(t *testing.T) {
	tests := []struct {
		name        string
		date        time.Time
		wantWeekday float64
		wantWeekend float64
	}{
		{"monday", time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC), 0, 0},
		{"friday", time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), 4, 0},
		{"saturday", time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), 5, 1},
		{"sunday", time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), 6, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := features.Build(testWeather(), testReading(), tt.date, nil, 0)
			assert.Equal(t, tt.wantWeekday, v.Weekday)
			assert.Equal(t, tt.wantWeekend, v.IsWeekend)
		})
	}
}

func TestBuild_SeasonEncoding(t *testing.T) {
	tests := []struct {
		month time.Month
		want  float64
	}{
		{time.January, 0},
		{time.February, 0},
		{time.May, 1},
		{time.July, 2},
		{time.October, 3},
		{time.December, 0},
	}

	for _, tt := range tests {
		ts := time.Date(2026, tt.month, 10, 12, 0, 0, 0, time.UTC)
		v := features.Build(testWeather(), testReading(), ts, nil, 0)
		assert.Equal(t, tt.want, v.SeasonEncoded, "month %s", tt.month)
	}
}

func TestBuild_NoHistorySentinels(t *testing.T) {
	v := features.Build(testWeather(), testReading(), testTime, nil, 0)

	assert.Equal(t, 0.0, v.AQIChange1h)
	assert.Equal(t, 0.0, v.AQIChange3h)
	assert.Equal(t, 0.0, v.AQIChange6h)
	assert.Equal(t, 100.0, v.AQIMA3h)
	assert.Equal(t, 100.0, v.AQIMA6h)
	assert.Equal(t, 100.0, v.AQIMA12h)
	assert.Equal(t, 100.0, v.AQIMA24h)
	assert.Equal(t, 100.0, v.AQILag1h)
	assert.Equal(t, 100.0, v.AQILag3h)
	assert.Equal(t, 100.0, v.AQILag6h)
}

func TestBuild_EmptyHistoryEqualsNoHistory(t *testing.T) {
	withNil := features.Build(testWeather(), testReading(), testTime, nil, 0)
	withEmpty := features.Build(testWeather(), testReading(), testTime, &features.History{}, 0)

	assert.Equal(t, withNil, withEmpty)
}

func TestBuild_HistoryFeatures(t *testing.T) {
	// 80 ascending samples: enough for the 72-sample window, short of 144.
	series := make([]float64, 80)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	hist := &features.History{AQI: series}

	v := features.Build(testWeather(), testReading(), testTime, hist, 0)

	assert.Equal(t, 1.0, v.AQIChange1h)
	assert.Equal(t, 3.0, v.AQIChange3h)
	assert.Equal(t, 6.0, v.AQIChange6h)

	// Mean of the trailing 72 samples (108..179).
	assert.InDelta(t, 143.5, v.AQIMA3h, 1e-9)
	assert.Equal(t, 100.0, v.AQIMA6h)
	assert.Equal(t, 100.0, v.AQIMA12h)
	assert.Equal(t, 100.0, v.AQIMA24h)

	// Every lag takes the most recent sample.
	assert.Equal(t, 179.0, v.AQILag1h)
	assert.Equal(t, 179.0, v.AQILag3h)
	assert.Equal(t, 179.0, v.AQILag6h)
}

func TestBuild_SingleSampleHistory(t *testing.T) {
	hist := &features.History{AQI: []float64{150}}

	v := features.Build(testWeather(), testReading(), testTime, hist, 0)

	// Too short for any change or window, but the lag is real.
	assert.Equal(t, 0.0, v.AQIChange1h)
	assert.Equal(t, 100.0, v.AQIMA3h)
	assert.Equal(t, 150.0, v.AQILag1h)
	assert.Equal(t, 150.0, v.AQILag6h)
}

func TestBuild_Interactions(t *testing.T) {
	v := features.Build(testWeather(), testReading(), testTime, nil, 0)

	assert.InDelta(t, 2080.0, v.TempHumidityInteraction, 1e-9) // 32 * 65
	assert.InDelta(t, 5.0/89.5, v.WindPollutionRatio, 1e-9)    // 5 / (88.5+1)
	assert.InDelta(t, 8.25, v.PressureStability, 1e-9)         // |1005 - 1013.25|
}

func TestBuild_WindPollutionRatioFiniteAtZeroPM25(t *testing.T) {
	r := testReading()
	r.PM25 = 0

	v := features.Build(testWeather(), r, testTime, nil, 0)

	assert.Equal(t, 5.0, v.WindPollutionRatio) // wind_speed / (0+1)
}

func TestBuild_PressureStabilityFromHistory(t *testing.T) {
	hist := &features.History{
		AQI:      []float64{100, 100, 100, 100, 100, 100, 100, 100},
		Pressure: []float64{1001, 1002, 1003, 1004, 1005, 1006, 1007, 1008},
	}

	v := features.Build(testWeather(), testReading(), testTime, hist, 0)

	// Sample std of the trailing 6 pressure samples (1003..1008).
	assert.InDelta(t, 1.8708286934, v.PressureStability, 1e-9)
}

func TestBuild_PressureStabilityFallsBackWhenShort(t *testing.T) {
	hist := &features.History{
		AQI:      []float64{100, 110, 120},
		Pressure: []float64{1004, 1005, 1006},
	}

	v := features.Build(testWeather(), testReading(), testTime, hist, 0)

	assert.InDelta(t, 8.25, v.PressureStability, 1e-9)
}

func TestBuild_CategoryEncoded(t *testing.T) {
	// PM2.5 at 88.5 puts the current AQI in the Unhealthy band.
	current := features.Build(testWeather(), testReading(), testTime, nil, 0)
	assert.Equal(t, 3.0, current.AQICategoryEncoded)

	// Unknown while forecasting.
	future := features.Build(testWeather(), testReading(), testTime.Add(24*time.Hour), nil, 1)
	assert.Equal(t, 0.0, future.AQICategoryEncoded)
}

func TestBuild_FutureOffsetExtrapolates(t *testing.T) {
	v := features.Build(testWeather(), testReading(), testTime.Add(24*time.Hour), nil, 1)

	assert.InDelta(t, 33.6, v.Temperature, 1e-9)    // 32 * 1.05
	assert.InDelta(t, 92.925, v.PM25, 1e-9)         // 88.5 * 1.05
	assert.InDelta(t, 240.0, v.WindDirection, 1e-9) // 225 + 15, unscaled
}

func TestBuild_NilInputs(t *testing.T) {
	v := features.Build(nil, nil, testTime, nil, 0)

	assert.Len(t, v.Values(), features.VectorSize)
	assert.Equal(t, 0.0, v.Temperature)
	assert.Equal(t, 0.0, v.WindPollutionRatio)
	assert.InDelta(t, 1013.25, v.PressureStability, 1e-9)
	assert.Equal(t, 0.0, v.AQICategoryEncoded) // all-zero reading is Good
}
