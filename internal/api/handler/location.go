package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/api/models"
	"github.com/aqicast/aqicast/internal/api/response"
	"github.com/aqicast/aqicast/internal/aqi"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/weather"
)

// targetMatchRadius is the coordinate tolerance, in degrees, within which a
// lat/lon query is matched to a configured collection target so the request
// can use that city's stored history.
const targetMatchRadius = 0.25

// errUnknownCity signals a city parameter that matches no configured target.
var errUnknownCity = errors.New("unknown city")

// locationError carries field validation failures from query parsing.
type locationError struct {
	fields []models.FieldError
}

func (e *locationError) Error() string {
	return "invalid location parameters"
}

// location is a resolved query location. Slug and Name are empty when the
// coordinates do not correspond to a configured target.
type location struct {
	Lat  float64
	Lon  float64
	Slug string
	Name string
}

// resolveLocation interprets the city, lat and lon query parameters. An
// explicit city wins over coordinates; with neither present the first
// configured target is used.
func resolveLocation(r *http.Request, targets []collector.Target) (location, error) {
	q := r.URL.Query()

	if city := q.Get("city"); city != "" {
		target, ok := collector.FindTarget(targets, city)
		if !ok {
			return location{}, errUnknownCity
		}
		return location{Lat: target.Lat, Lon: target.Lon, Slug: target.Slug, Name: target.Name}, nil
	}

	latStr := q.Get("lat")
	lonStr := q.Get("lon")
	if latStr == "" && lonStr == "" {
		primary := targets[0]
		return location{Lat: primary.Lat, Lon: primary.Lon, Slug: primary.Slug, Name: primary.Name}, nil
	}

	var fields []models.FieldError
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		fields = append(fields, models.FieldError{
			Field: "lat", Message: "must be a number between -90 and 90", Code: "OUT_OF_RANGE",
		})
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		fields = append(fields, models.FieldError{
			Field: "lon", Message: "must be a number between -180 and 180", Code: "OUT_OF_RANGE",
		})
	}
	if len(fields) > 0 {
		return location{}, &locationError{fields: fields}
	}

	loc := location{Lat: lat, Lon: lon}
	for _, t := range targets {
		if math.Abs(lat-t.Lat) <= targetMatchRadius && math.Abs(lon-t.Lon) <= targetMatchRadius {
			loc.Slug = t.Slug
			loc.Name = t.Name
			break
		}
	}
	return loc, nil
}

// writeLocationError maps resolveLocation failures to problem responses.
func writeLocationError(w http.ResponseWriter, r *http.Request, err error) {
	var le *locationError
	switch {
	case errors.Is(err, errUnknownCity):
		response.NotFound(w, r, "unknown city")
	case errors.As(err, &le):
		response.BadRequest(w, r, "invalid location parameters", le.fields)
	default:
		response.BadRequest(w, r, "invalid location parameters", nil)
	}
}

func (l location) point() models.Point {
	return models.Point{Lat: l.Lat, Lon: l.Lon}
}

// categoryInfo maps an AQI value to its category response model.
func categoryInfo(value int) models.CategoryInfo {
	cat := aqi.Categorize(value)
	return models.CategoryInfo{
		Index: int(cat),
		Name:  cat.String(),
		Color: cat.Color(),
	}
}

func pollutantsFrom(r *airquality.Reading) models.Pollutants {
	return models.Pollutants{
		PM25: r.PM25,
		PM10: r.PM10,
		O3:   r.O3,
		NO2:  r.NO2,
		SO2:  r.SO2,
		CO:   r.CO,
	}
}

func weatherFrom(o *weather.Observation) models.WeatherInfo {
	return models.WeatherInfo{
		Temperature:   o.Temperature,
		Humidity:      o.Humidity,
		Pressure:      o.Pressure,
		WindSpeed:     o.WindSpeed,
		WindDirection: o.WindDirection,
		Precipitation: o.Precipitation,
	}
}
