package features

// History is a chronological series of hourly samples, oldest first.
// Callers supply at most the trailing 7 days (168 samples).
type History struct {
	// AQI holds overall AQI values.
	AQI []float64

	// Pressure holds surface pressure in hPa, aligned with AQI.
	Pressure []float64
}

// Empty reports whether no AQI samples are available.
func (h *History) Empty() bool {
	return h == nil || len(h.AQI) == 0
}
