package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqicast/aqicast/internal/airquality"
	"github.com/aqicast/aqicast/internal/collector"
	"github.com/aqicast/aqicast/internal/featureflags"
	"github.com/aqicast/aqicast/internal/history"
	"github.com/aqicast/aqicast/internal/weather"
	"github.com/aqicast/aqicast/internal/worker"
)

type weatherProvider struct {
	err error
}

func (p *weatherProvider) GetCurrentWeather(_ context.Context, lat, lon float64) (*weather.Observation, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &weather.Observation{
		Lat:           lat,
		Lon:           lon,
		Temperature:   32.0,
		Humidity:      65.0,
		Pressure:      1005.0,
		WindSpeed:     5.0,
		WindDirection: 225.0,
		Precipitation: 0.4,
	}, nil
}

func (p *weatherProvider) Name() string { return "test-weather" }

type airProvider struct {
	err error
}

func (p *airProvider) GetCurrentReading(_ context.Context, lat, lon float64) (*airquality.Reading, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &airquality.Reading{
		Lat:  lat,
		Lon:  lon,
		PM25: 88.5,
		PM10: 142.0,
		O3:   74.0,
		NO2:  41.2,
		CO:   612.0,
		SO2:  18.9,
	}, nil
}

func (p *airProvider) Name() string { return "test-air" }

// newCollectStack wires a collection job over in-memory services and
// stub providers.
func newCollectStack(tb testing.TB, cfg worker.CollectConfig, wp *weatherProvider, ap *airProvider) (*worker.CollectJob, *history.Service, *featureflags.Service) {
	tb.Helper()

	weatherSvc := weather.NewService(weather.ServiceConfig{
		Provider: wp,
		Logger:   zerolog.Nop(),
	})
	airSvc := airquality.NewService(airquality.ServiceConfig{
		Provider: ap,
		Logger:   zerolog.Nop(),
	})
	histSvc := history.NewService(history.ServiceConfig{
		Repository: history.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
	})
	flagSvc := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
	})

	collectSvc := collector.NewService(collector.ServiceConfig{
		Weather:      weatherSvc,
		AirQuality:   airSvc,
		History:      histSvc,
		FeatureFlags: flagSvc,
		Logger:       zerolog.Nop(),
	})

	job := worker.NewCollectJob(worker.CollectJobConfig{
		Config:    cfg,
		Logger:    zerolog.Nop(),
		Collector: collectSvc,
		History:   histSvc,
	})

	return job, histSvc, flagSvc
}

func TestDefaultCollectConfig(t *testing.T) {
	cfg := worker.DefaultCollectConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1*time.Hour, cfg.Interval)
	assert.Len(t, cfg.Targets, 3)
	assert.Equal(t, 3, cfg.TotalTargets())
}

func TestNewCollectJob_Defaults(t *testing.T) {
	job, _, _ := newCollectStack(t, worker.CollectConfig{}, &weatherProvider{}, &airProvider{})

	cfg := job.Config()
	assert.Equal(t, 3, cfg.TotalTargets())
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1*time.Hour, cfg.Interval)
}

func TestCollectJob_Run(t *testing.T) {
	job, histSvc, _ := newCollectStack(t, worker.CollectConfig{
		Concurrency: 3,
		Timeout:     1 * time.Second,
	}, &weatherProvider{}, &airProvider{})
	ctx := context.Background()

	result := job.Run(ctx)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.TotalTargets)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)
	assert.Greater(t, result.Duration, time.Duration(0))

	// Every target got a stored sample.
	for _, slug := range []string{"karachi", "lahore", "islamabad"} {
		sample, err := histSvc.Latest(ctx, slug)
		require.NoError(t, err, slug)
		assert.Equal(t, 168, sample.AQI, slug)
	}
}

func TestCollectJob_Run_ProviderFailure(t *testing.T) {
	job, histSvc, _ := newCollectStack(t, worker.CollectConfig{
		Concurrency: 2,
		Timeout:     1 * time.Second,
	}, &weatherProvider{}, &airProvider{err: errors.New("upstream down")})
	ctx := context.Background()

	result := job.Run(ctx)

	assert.Equal(t, 3, result.TotalTargets)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Errors, 3)

	slugs := make(map[string]bool)
	for _, collectErr := range result.Errors {
		slugs[collectErr.Target] = true
		assert.Contains(t, collectErr.Error, "fetching air quality")
	}
	assert.Len(t, slugs, 3)

	_, err := histSvc.Latest(ctx, "karachi")
	assert.ErrorIs(t, err, history.ErrSampleNotFound)
}

func TestCollectJob_Run_DisabledByFlag(t *testing.T) {
	job, histSvc, flagSvc := newCollectStack(t, worker.CollectConfig{
		Concurrency: 1,
		Timeout:     1 * time.Second,
	}, &weatherProvider{}, &airProvider{})
	ctx := context.Background()

	require.NoError(t, flagSvc.SetFlag(ctx, &featureflags.Flag{
		Key:   featureflags.FlagDisableCollector,
		Value: true,
	}))

	result := job.Run(ctx)

	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	_, err := histSvc.Latest(ctx, "karachi")
	assert.ErrorIs(t, err, history.ErrSampleNotFound)
}

func TestCollectJob_Run_ContextCancellation(t *testing.T) {
	job, _, _ := newCollectStack(t, worker.CollectConfig{
		Concurrency: 1,
		Timeout:     100 * time.Millisecond,
	}, &weatherProvider{}, &airProvider{})

	// Cancel context immediately
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	// Should complete (even if not all targets processed)
	require.NotNil(t, result)
	assert.LessOrEqual(t, result.Successful, result.TotalTargets)
}

func TestCollectJob_GetMetrics(t *testing.T) {
	job, _, _ := newCollectStack(t, worker.CollectConfig{
		Concurrency: 1,
		Timeout:     1 * time.Second,
	}, &weatherProvider{}, &airProvider{})

	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRuns)
	assert.Equal(t, int64(3), metrics.SuccessfulSamples)
	assert.Equal(t, int64(0), metrics.FailedSamples)
	assert.NotZero(t, metrics.LastRunAt)
	assert.Greater(t, metrics.LastRunDuration, time.Duration(0))
}

func TestCollectJob_MetricsSnapshot(t *testing.T) {
	job, _, _ := newCollectStack(t, worker.CollectConfig{
		Concurrency: 1,
		Timeout:     1 * time.Second,
	}, &weatherProvider{}, &airProvider{})

	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()

	assert.Contains(t, snapshot, "total_runs")
	assert.Contains(t, snapshot, "successful_samples")
	assert.Contains(t, snapshot, "failed_samples")
	assert.Contains(t, snapshot, "skipped_samples")
	assert.Contains(t, snapshot, "pruned_samples")
	assert.Contains(t, snapshot, "last_run_at")
	assert.Contains(t, snapshot, "last_run_duration")
}

func TestCollectJob_PruneHistory(t *testing.T) {
	histSvc := history.NewService(history.ServiceConfig{
		Repository: history.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
		Retention:  1 * time.Hour,
	})
	ctx := context.Background()

	expired := &history.Sample{
		Target:     "karachi",
		Lat:        24.8607,
		Lon:        67.0011,
		AQI:        140,
		RecordedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, histSvc.Record(ctx, expired))

	job := worker.NewCollectJob(worker.CollectJobConfig{
		Logger:  zerolog.Nop(),
		History: histSvc,
	})

	require.NoError(t, job.PruneHistory(ctx))

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.PrunedSamples)

	_, err := histSvc.Latest(ctx, "karachi")
	assert.ErrorIs(t, err, history.ErrSampleNotFound)
}

func TestCollectJob_PruneHistory_NoHistoryService(t *testing.T) {
	job := worker.NewCollectJob(worker.CollectJobConfig{
		Logger: zerolog.Nop(),
	})

	assert.NoError(t, job.PruneHistory(context.Background()))
}

// BenchmarkCollectJob_Run benchmarks a full pass over the default targets.
func BenchmarkCollectJob_Run(b *testing.B) {
	job, _, _ := newCollectStack(b, worker.CollectConfig{
		Concurrency: 3,
		Timeout:     1 * time.Second,
	}, &weatherProvider{}, &airProvider{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = job.Run(context.Background())
	}
}
