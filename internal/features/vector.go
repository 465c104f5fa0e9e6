// Package features derives model-ready feature vectors from current
// conditions, a target timestamp, and optional recent AQI history.
package features

// VectorSize is the number of features the downstream model consumes.
const VectorSize = 36

// Names lists every feature in model training order.
var Names = []string{
	"temperature", "humidity", "pressure", "wind_speed", "wind_direction",
	"precipitation", "pm10", "pm25", "co", "no2", "o3", "so2",
	"hour", "day", "month", "weekday", "is_weekend",
	"hour_sin", "hour_cos", "month_sin", "month_cos",
	"aqi_change_1h", "aqi_change_3h", "aqi_change_6h",
	"aqi_ma_3h", "aqi_ma_6h", "aqi_ma_12h", "aqi_ma_24h",
	"aqi_lag_1h", "aqi_lag_3h", "aqi_lag_6h",
	"temp_humidity_interaction", "wind_pollution_ratio", "pressure_stability",
	"season_encoded", "aqi_category_encoded",
}

// Vector is the model input: one field per feature. Field order, Names,
// and Values must stay in lockstep; the model was fitted against exactly
// this layout.
type Vector struct {
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

	Hour      float64
	Day       float64
	Month     float64
	Weekday   float64
	IsWeekend float64

	HourSin  float64
	HourCos  float64
	MonthSin float64
	MonthCos float64

	AQIChange1h float64
	AQIChange3h float64
	AQIChange6h float64

	AQIMA3h  float64
	AQIMA6h  float64
	AQIMA12h float64
	AQIMA24h float64

	AQILag1h float64
	AQILag3h float64
	AQILag6h float64

	TempHumidityInteraction float64
	WindPollutionRatio      float64
	PressureStability       float64

	SeasonEncoded      float64
	AQICategoryEncoded float64
}

// Values returns the features as a slice in training order.
func (v Vector) Values() []float64 {
	return []float64{
		v.Temperature, v.Humidity, v.Pressure, v.WindSpeed, v.WindDirection,
		v.Precipitation, v.PM10, v.PM25, v.CO, v.NO2, v.O3, v.SO2,
		v.Hour, v.Day, v.Month, v.Weekday, v.IsWeekend,
		v.HourSin, v.HourCos, v.MonthSin, v.MonthCos,
		v.AQIChange1h, v.AQIChange3h, v.AQIChange6h,
		v.AQIMA3h, v.AQIMA6h, v.AQIMA12h, v.AQIMA24h,
		v.AQILag1h, v.AQILag3h, v.AQILag6h,
		v.TempHumidityInteraction, v.WindPollutionRatio, v.PressureStability,
		v.SeasonEncoded, v.AQICategoryEncoded,
	}
}
