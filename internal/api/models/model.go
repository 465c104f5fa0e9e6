package models

// ModelInfo describes the loaded regression artifact.
type ModelInfo struct {
	Version      string    `json:"version"`
	TrainedAt    Timestamp `json:"trainedAt"`
	FeatureCount int       `json:"featureCount"`
	FeatureNames []string  `json:"featureNames"`
	Intercept    float64   `json:"intercept"`
}

// FeatureValue is one named entry of a feature vector.
type FeatureValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureVectorResponse exposes the assembled feature vector for a location
// and day offset. Features keep the model input order.
type FeatureVectorResponse struct {
	City      string         `json:"city,omitempty"`
	Location  Point          `json:"location"`
	DayOffset int            `json:"dayOffset"`
	Features  []FeatureValue `json:"features"`
}
