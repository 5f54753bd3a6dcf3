package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/log"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) RefreshAll(context.Context) int {
	r.calls.Add(1)
	return 1
}

type failingJob struct{ runs atomic.Int32 }

func (j *failingJob) Name() string { return "failing" }

func (j *failingJob) Run(context.Context) error {
	j.runs.Add(1)
	return errors.New("boom")
}

func TestHomeRefreshJob(t *testing.T) {
	refresher := &countingRefresher{}
	job := NewHomeRefreshJob(refresher, log.Discard())

	assert.Equal(t, "home-refresh", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestSchedulerRunsJobOnSchedule(t *testing.T) {
	refresher := &countingRefresher{}
	s := New(context.Background(), log.Discard())
	require.NoError(t, s.AddJob("@every 1s", NewHomeRefreshJob(refresher, log.Discard())))

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return refresher.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New(context.Background(), log.Discard())
	assert.Error(t, s.AddJob("every minute", &failingJob{}))
}

func TestRunNowReturnsJobError(t *testing.T) {
	s := New(context.Background(), log.Discard())
	job := &failingJob{}
	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestCancelledContextSkipsScheduledRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(ctx, log.Discard())
	job := &failingJob{}

	s.run(job)
	assert.Zero(t, job.runs.Load())
}
