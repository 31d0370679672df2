package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	calls int
	fail  bool
	done  chan struct{}
}

func (h *countingHandler) Execute(ctx context.Context, params map[string]interface{}) (*JobResult, error) {
	h.calls++
	if h.done != nil {
		h.done <- struct{}{}
	}
	if h.fail {
		return nil, errors.New("boom")
	}
	return &JobResult{Success: true}, nil
}

func TestScheduleJobRejectsUnknownCron(t *testing.T) {
	jm := NewJobManager(1)
	jm.RegisterJob(&Job{ID: "x", Name: "x", Handler: &countingHandler{}, Timeout: time.Second, MaxRetries: 1})

	err := jm.ScheduleJob("x", "x", "*/5 * * * *", nil)
	require.Error(t, err)
}

func TestScheduleJobRejectsUnregisteredJob(t *testing.T) {
	jm := NewJobManager(1)
	err := jm.ScheduleJob("missing", "missing", "0 2 * * *", nil)
	require.Error(t, err)
}

func TestScheduleJobAcceptsKnownSchedules(t *testing.T) {
	jm := NewJobManager(1)
	jm.RegisterJob(&Job{ID: "daily", Name: "daily", Handler: &countingHandler{}, Timeout: time.Second, MaxRetries: 1})
	require.NoError(t, jm.ScheduleJob("daily", "daily", "0 2 * * *", nil))

	jm.RegisterJob(&Job{ID: "hourly", Name: "hourly", Handler: &countingHandler{}, Timeout: time.Second, MaxRetries: 1})
	require.NoError(t, jm.ScheduleJob("hourly", "hourly", "0 * * * *", nil))

	stats := jm.Stats()
	assert.Equal(t, 2, stats["scheduled_jobs"])
}

func TestQueueJobRunsThroughWorkerPool(t *testing.T) {
	handler := &countingHandler{done: make(chan struct{}, 1)}
	jm := NewJobManager(1)
	jm.RegisterJob(&Job{ID: "grid_recompute", Name: "grid recompute", Handler: handler, Timeout: time.Second, MaxRetries: 1})
	jm.Start()
	defer jm.Stop()

	_, err := jm.QueueJob("grid_recompute", nil)
	require.NoError(t, err)

	select {
	case <-handler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestQueueJobUnknownIDFails(t *testing.T) {
	jm := NewJobManager(1)
	_, err := jm.QueueJob("nope", nil)
	require.Error(t, err)
}

func TestStopPreventsFurtherProcessing(t *testing.T) {
	jm := NewJobManager(1)
	jm.RegisterJob(&Job{ID: "x", Name: "x", Handler: &countingHandler{}, Timeout: time.Second, MaxRetries: 1})
	jm.Start()
	jm.Stop()

	stats := jm.Stats()
	assert.Equal(t, false, stats["running"])
}
