package predict

import (
	"fmt"

	"github.com/aqicast/aqicast/internal/features"
)

// Score applies the linear model to a scaled feature vector and returns
// the raw, unclamped prediction.
func (p *Params) Score(scaled []float64) (float64, error) {
	if len(scaled) != features.VectorSize {
		return 0, fmt.Errorf("expected %d features, got %d", features.VectorSize, len(scaled))
	}

	sum := p.Intercept
	for i, v := range scaled {
		sum += p.Weights[i] * v
	}

	return sum, nil
}
