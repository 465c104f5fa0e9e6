package aqi

// Category is the severity bucket of an AQI value, encoded 0-5.
type Category int

const (
	CategoryGood Category = iota
	CategoryModerate
	CategorySensitive
	CategoryUnhealthy
	CategoryVeryUnhealthy
	CategoryHazardous
)

// Categorize maps an AQI value to its severity category.
func Categorize(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategorySensitive
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

// String returns the EPA display label for the category.
func (c Category) String() string {
	switch c {
	case CategoryGood:
		return "Good"
	case CategoryModerate:
		return "Moderate"
	case CategorySensitive:
		return "Unhealthy for Sensitive Groups"
	case CategoryUnhealthy:
		return "Unhealthy"
	case CategoryVeryUnhealthy:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// Color returns the conventional display color for the category.
func (c Category) Color() string {
	switch c {
	case CategoryGood:
		return "green"
	case CategoryModerate:
		return "yellow"
	case CategorySensitive:
		return "orange"
	case CategoryUnhealthy:
		return "red"
	case CategoryVeryUnhealthy:
		return "purple"
	default:
		return "maroon"
	}
}
