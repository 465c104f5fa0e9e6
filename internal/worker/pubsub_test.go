package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqicast/aqicast/internal/collector"
)

// newIdleHandler builds a handler around a job with no targets, so
// dispatched jobs complete without touching any provider.
func newIdleHandler() *PubSubHandler {
	return &PubSubHandler{
		collectJob: &CollectJob{
			logger:  zerolog.Nop(),
			metrics: &CollectMetrics{},
		},
		logger: zerolog.Nop(),
	}
}

func TestDispatch_UnknownJobType(t *testing.T) {
	h := newIdleHandler()

	err := h.dispatch(context.Background(), CollectMessage{JobType: "reindex"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownJob)
	assert.Contains(t, err.Error(), "reindex")
}

func TestDispatch_CollectWithoutTargets(t *testing.T) {
	h := newIdleHandler()

	err := h.dispatch(context.Background(), CollectMessage{JobType: JobTypeCollect})

	assert.NoError(t, err)
}

func TestDispatch_PruneWithoutHistory(t *testing.T) {
	h := newIdleHandler()

	err := h.dispatch(context.Background(), CollectMessage{JobType: JobTypePrune})

	assert.NoError(t, err)
}

func TestFilteredJob(t *testing.T) {
	h := newIdleHandler()
	h.collectJob.config.Targets = collector.DefaultTargets()

	job := h.filteredJob([]string{"lahore", "atlantis"})

	require.Len(t, job.config.Targets, 1)
	assert.Equal(t, "lahore", job.config.Targets[0].Slug)
	// Filtered jobs report into the main job's metrics.
	assert.Same(t, h.collectJob.metrics, job.metrics)
}

func TestFilteredJob_NoKnownTargets(t *testing.T) {
	h := newIdleHandler()
	h.collectJob.config.Targets = collector.DefaultTargets()

	job := h.filteredJob([]string{"atlantis"})

	assert.Empty(t, job.config.Targets)
}

func TestCollectMessage_Decode(t *testing.T) {
	payload := []byte(`{"job_type":"collect","targets":["karachi"]}`)

	var msg CollectMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, JobTypeCollect, msg.JobType)
	assert.Equal(t, []string{"karachi"}, msg.Targets)
}
