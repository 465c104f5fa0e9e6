package predict_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqicast/aqicast/internal/features"
	"github.com/aqicast/aqicast/internal/predict"
)

// validParams returns a minimal artifact that passes validation: zero
// means, unit stds, zero weights.
func validParams() *predict.Params {
	names := make([]string, len(features.Names))
	copy(names, features.Names)

	stds := make([]float64, features.VectorSize)
	for i := range stds {
		stds[i] = 1
	}

	return &predict.Params{
		Version:      "test",
		TrainedAt:    time.Date(2026, 6, 30, 9, 0, 0, 0, time.UTC),
		FeatureNames: names,
		Means:        make([]float64, features.VectorSize),
		Stds:         stds,
		Weights:      make([]float64, features.VectorSize),
		Intercept:    100,
	}
}

func TestDefaultParams(t *testing.T) {
	params := predict.DefaultParams()

	require.NotNil(t, params)
	assert.NotEmpty(t, params.Version)
	assert.False(t, params.TrainedAt.IsZero())
	assert.Len(t, params.FeatureNames, features.VectorSize)
	assert.Len(t, params.Means, features.VectorSize)
	assert.Len(t, params.Stds, features.VectorSize)
	assert.Len(t, params.Weights, features.VectorSize)
	assert.NoError(t, params.Validate())
}

func TestLoadParams(t *testing.T) {
	src := validParams()
	src.Version = "test-artifact"
	src.Intercept = 133.7

	data, err := json.Marshal(src)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	params, err := predict.LoadParams(path)
	require.NoError(t, err)

	assert.Equal(t, "test-artifact", params.Version)
	assert.Equal(t, 133.7, params.Intercept)
	assert.Len(t, params.Weights, features.VectorSize)
}

func TestLoadParams_MissingFile(t *testing.T) {
	_, err := predict.LoadParams(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}

func TestParseParams_InvalidJSON(t *testing.T) {
	_, err := predict.ParseParams([]byte("{"))
	assert.Error(t, err)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *predict.Params)
	}{
		{
			name: "too few feature names",
			mutate: func(p *predict.Params) {
				p.FeatureNames = p.FeatureNames[:len(p.FeatureNames)-1]
			},
		},
		{
			name: "reordered feature names",
			mutate: func(p *predict.Params) {
				p.FeatureNames[0], p.FeatureNames[1] = p.FeatureNames[1], p.FeatureNames[0]
			},
		},
		{
			name: "unknown feature name",
			mutate: func(p *predict.Params) {
				p.FeatureNames[5] = "visibility"
			},
		},
		{
			name: "wrong means length",
			mutate: func(p *predict.Params) {
				p.Means = p.Means[:10]
			},
		},
		{
			name: "wrong stds length",
			mutate: func(p *predict.Params) {
				p.Stds = append(p.Stds, 1)
			},
		},
		{
			name: "wrong weights length",
			mutate: func(p *predict.Params) {
				p.Weights = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(params)
			assert.Error(t, params.Validate())
		})
	}
}

func TestParams_Scale(t *testing.T) {
	params := validParams()
	params.Means[0] = 10
	params.Stds[0] = 2

	values := make([]float64, features.VectorSize)
	values[0] = 14
	values[1] = 3

	scaled, err := params.Scale(values)
	require.NoError(t, err)

	assert.Equal(t, 2.0, scaled[0])
	assert.Equal(t, 3.0, scaled[1])
	assert.Equal(t, 0.0, scaled[2])
}

func TestParams_Scale_ZeroStdPassesThrough(t *testing.T) {
	params := validParams()
	params.Means[3] = 5
	params.Stds[3] = 0

	values := make([]float64, features.VectorSize)
	values[3] = 12

	scaled, err := params.Scale(values)
	require.NoError(t, err)

	assert.Equal(t, 7.0, scaled[3])
}

func TestParams_Scale_WrongLength(t *testing.T) {
	params := validParams()

	_, err := params.Scale([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestParams_Score(t *testing.T) {
	params := validParams()
	params.Intercept = 5
	params.Weights[0] = 2
	params.Weights[1] = -1

	scaled := make([]float64, features.VectorSize)
	scaled[0] = 3
	scaled[1] = 4

	raw, err := params.Score(scaled)
	require.NoError(t, err)

	assert.Equal(t, 7.0, raw)
}

func TestParams_Score_WrongLength(t *testing.T) {
	params := validParams()

	_, err := params.Score(make([]float64, 5))
	assert.Error(t, err)
}
