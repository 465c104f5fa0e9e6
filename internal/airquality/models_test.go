package airquality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/aqi"
)

func TestReading_AQI(t *testing.T) {
	// PM2.5 at 88.5 dominates the other sub-indices.
	reading := &airquality.Reading{
		PM25: 88.5,
		PM10: 142.0,
		O3:   74.0,
		NO2:  41.2,
		CO:   612.0,
		SO2:  18.9,
	}

	assert.Equal(t, 168, reading.AQI())
	assert.Equal(t, aqi.CategoryUnhealthy, reading.Category())
}

func TestReading_AQI_CleanAir(t *testing.T) {
	reading := &airquality.Reading{}

	assert.Equal(t, 0, reading.AQI())
	assert.Equal(t, aqi.CategoryGood, reading.Category())
}
