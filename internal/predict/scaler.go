package predict

import (
	"fmt"

	"github.com/aqicast/aqicast/internal/features"
)

// Scale standard-scores a raw feature vector: (value - mean) / std per
// position. Features with zero variance in the training data pass through
// unscaled.
func (p *Params) Scale(values []float64) ([]float64, error) {
	if len(values) != features.VectorSize {
		return nil, fmt.Errorf("expected %d features, got %d", features.VectorSize, len(values))
	}

	scaled := make([]float64, len(values))
	for i, v := range values {
		std := p.Stds[i]
		if std == 0 {
			std = 1
		}
		scaled[i] = (v - p.Means[i]) / std
	}

	return scaled, nil
}
