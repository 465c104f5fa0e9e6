// Package featureflags stores runtime toggles that gate collector runs
// and API surfaces without a redeploy.
package featureflags

import (
	"encoding/json"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagEnablePollutionAdjustment adds a pollutant emphasis term to
	// forecast scores.
	FlagEnablePollutionAdjustment = "enable_pollution_adjustment"

	// FlagDisableCollector pauses scheduled observation collection.
	FlagDisableCollector = "disable_collector"

	// FlagDisableForecast takes the forecast endpoints out of service.
	FlagDisableForecast = "disable_forecast"

	// FlagDisableDashboard hides the HTML dashboard.
	FlagDisableDashboard = "disable_dashboard"
)

// Flag is one runtime toggle with its current value.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FlagList is the wire form of a flag listing.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate sets one flag to a new value.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest carries a batch of updates with an audit reason.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

// BoolValue returns the flag's boolean value, or defaultValue when the
// flag is nil or holds something else.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(bool); ok {
		return v
	}
	// Numbers arrive as float64 after a JSON round trip.
	if v, ok := f.Value.(float64); ok {
		return v != 0
	}
	return defaultValue
}

// StringValue returns the flag's string value, or defaultValue when the
// flag is nil or holds something else.
func (f *Flag) StringValue(defaultValue string) string {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(string); ok {
		return v
	}
	return defaultValue
}

// IntValue returns the flag's integer value, or defaultValue when the
// flag is nil or holds no number.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case int:
		return v
	case float64:
		// Numbers arrive as float64 after a JSON round trip.
		return int(v)
	}
	return defaultValue
}

// Float64Value returns the flag's float value, or defaultValue when the
// flag is nil or holds no number.
func (f *Flag) Float64Value(defaultValue float64) float64 {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case int:
		return float64(v)
	case float64:
		return v
	}
	return defaultValue
}

// JSONValue unmarshals the flag value into target via a JSON round
// trip. A nil flag leaves target untouched.
func (f *Flag) JSONValue(target interface{}) error {
	if f == nil {
		return nil
	}
	raw, err := json.Marshal(f.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

// DefaultFlags returns the boot-time flag set. Every flag starts off.
func DefaultFlags() map[string]*Flag {
	keys := []string{
		FlagEnablePollutionAdjustment,
		FlagDisableCollector,
		FlagDisableForecast,
		FlagDisableDashboard,
	}

	now := time.Now()
	flags := make(map[string]*Flag, len(keys))
	for _, key := range keys {
		flags[key] = &Flag{Key: key, Value: false, UpdatedAt: now}
	}
	return flags
}
