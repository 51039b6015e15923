package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/pkg/logger"
)

func countingJob(name, spec string, calls *atomic.Int32, err error) FuncJob {
	return FuncJob{
		JobName: name,
		Spec:    spec,
		Fn: func(ctx context.Context) error {
			calls.Add(1)
			return err
		},
	}
}

func TestScheduler_AddAndRemove(t *testing.T) {
	s := New(logger.NewNop())
	var calls atomic.Int32

	require.NoError(t, s.AddJob(countingJob("b", "0 0 * * * *", &calls, nil)))
	require.NoError(t, s.AddJob(countingJob("a", "@hourly", &calls, nil)))
	assert.Error(t, s.AddJob(countingJob("a", "@hourly", &calls, nil)), "duplicate name")
	assert.Error(t, s.AddJob(countingJob("bad", "not a spec", &calls, nil)))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())

	_, err := s.NextRun("a")
	assert.Error(t, err)
}

func TestScheduler_RunJobRecordsHistory(t *testing.T) {
	s := New(logger.NewNop()).WithRetry(2, 0)
	var ok, failing atomic.Int32

	require.NoError(t, s.AddJob(countingJob("ok", "@daily", &ok, nil)))
	require.NoError(t, s.AddJob(countingJob("failing", "@daily", &failing, errors.New("upstream down"))))

	require.NoError(t, s.RunJob("ok"))
	require.NoError(t, s.RunJob("failing"))
	assert.Error(t, s.RunJob("missing"))

	require.Eventually(t, func() bool {
		stats := s.GetJobStats()
		return stats["ok"].TotalRuns == 1 && stats["failing"].TotalRuns == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(3), failing.Load(), "one run plus two retries")

	stats := s.GetJobStats()
	assert.Equal(t, 1.0, stats["ok"].SuccessRate)
	assert.NotNil(t, stats["ok"].LastSuccess)
	assert.Equal(t, 1, stats["failing"].FailureCount)
	assert.NotNil(t, stats["failing"].LastFailure)

	history, err := s.GetJobHistory("failing")
	require.NoError(t, err)
	assert.Equal(t, "upstream down", history.Results[0].Error)
}

func TestScheduler_CronFires(t *testing.T) {
	s := New(logger.NewNop())
	var calls atomic.Int32
	require.NoError(t, s.AddJob(countingJob("tick", "* * * * * *", &calls, nil)))

	next, err := s.NextRun("tick")
	require.NoError(t, err)
	assert.True(t, next.IsZero(), "not started")

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(logger.NewNop()).WithRetry(5, time.Hour)
	started := make(chan struct{})
	var cancelled atomic.Bool

	require.NoError(t, s.AddJob(FuncJob{
		JobName: "slow",
		Spec:    "@daily",
		Fn: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		},
	}))

	s.Start()
	require.NoError(t, s.RunJob("slow"))
	<-started
	s.Stop()

	require.Eventually(t, func() bool {
		return s.GetJobStats()["slow"].FailureCount == 1
	}, 2*time.Second, 10*time.Millisecond, "no retry after cancellation")
	assert.True(t, cancelled.Load())
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	assert.Empty(t, h.GetLatestResults(3))
	assert.Equal(t, 0.0, h.GetSuccessRate())

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0, Duration: time.Duration(i)})
	}

	assert.Len(t, h.Results, maxHistory)
	latest := h.GetLatestResults(2)
	assert.Equal(t, time.Duration(maxHistory+9), latest[0].Duration, "newest first")
	assert.Equal(t, time.Duration(maxHistory+8), latest[1].Duration)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
