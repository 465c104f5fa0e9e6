// Package predict scores engineered feature vectors with the regression
// model exported by the offline training pipeline.
package predict

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aqicast/aqicast/internal/features"
)

//go:embed params_default.json
var defaultParamsJSON []byte

// Params holds the fitted scaler statistics and linear model coefficients.
// The training pipeline exports them as a JSON artifact; all four arrays
// are indexed by feature position.
type Params struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	FeatureNames []string  `json:"feature_names"`
	Means        []float64 `json:"means"`
	Stds         []float64 `json:"stds"`
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
}

// LoadParams reads and validates a model artifact from disk.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}

	params, err := ParseParams(data)
	if err != nil {
		return nil, fmt.Errorf("parsing model artifact %s: %w", path, err)
	}

	return params, nil
}

// ParseParams decodes and validates a model artifact.
func ParseParams(data []byte) (*Params, error) {
	var params Params
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("decoding model artifact: %w", err)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &params, nil
}

// DefaultParams returns the artifact embedded in the binary. It panics if
// the embedded artifact is invalid.
func DefaultParams() *Params {
	params, err := ParseParams(defaultParamsJSON)
	if err != nil {
		panic(fmt.Sprintf("predict: embedded model artifact: %v", err))
	}
	return params
}

// Validate checks the artifact against the feature vector layout the
// model was fitted on. The feature names must match in content and order;
// a mismatch means the artifact belongs to a different pipeline version.
func (p *Params) Validate() error {
	if len(p.FeatureNames) != features.VectorSize {
		return fmt.Errorf("expected %d feature names, got %d", features.VectorSize, len(p.FeatureNames))
	}

	for i, name := range p.FeatureNames {
		if name != features.Names[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, name, features.Names[i])
		}
	}

	if len(p.Means) != features.VectorSize {
		return fmt.Errorf("expected %d means, got %d", features.VectorSize, len(p.Means))
	}
	if len(p.Stds) != features.VectorSize {
		return fmt.Errorf("expected %d stds, got %d", features.VectorSize, len(p.Stds))
	}
	if len(p.Weights) != features.VectorSize {
		return fmt.Errorf("expected %d weights, got %d", features.VectorSize, len(p.Weights))
	}

	return nil
}
