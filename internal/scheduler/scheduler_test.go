package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msolomos/contest-arbiter/pkg/config"
	"github.com/msolomos/contest-arbiter/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

type stubJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	block    chan struct{}
	err      error
	done     chan struct{}
}

func newStubJob(name string) *stubJob {
	return &stubJob{name: name, schedule: "@hourly", done: make(chan struct{}, 16)}
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	j.done <- struct{}{}
	return j.err
}

func TestAddJob_Duplicate(t *testing.T) {
	s := New(testLogger())

	require.NoError(t, s.AddJob(newStubJob("nightly")))
	err := s.AddJob(newStubJob("nightly"))
	assert.ErrorContains(t, err, "already exists")
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(testLogger())

	job := newStubJob("broken")
	job.schedule = "not a cron expression"
	assert.Error(t, s.AddJob(job))
}

func TestRemoveJob(t *testing.T) {
	s := New(testLogger())

	require.NoError(t, s.AddJob(newStubJob("nightly")))
	require.NoError(t, s.RemoveJob("nightly"))
	assert.Error(t, s.RemoveJob("nightly"))
	assert.Empty(t, s.GetAllJobs())
}

func TestRunJob_Immediate(t *testing.T) {
	s := New(testLogger())
	job := newStubJob("nightly")
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("nightly"))

	select {
	case <-job.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	assert.Equal(t, int32(1), job.runs.Load())
	assert.Error(t, s.RunJob("unknown"))
}

func TestRunJobAndWait(t *testing.T) {
	s := New(testLogger())
	job := newStubJob("nightly")
	require.NoError(t, s.AddJob(job))

	history, err := s.RunJobAndWait("nightly")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)

	_, err = s.RunJobAndWait("unknown")
	assert.Error(t, err)
}

func TestRunJob_SkipsWhileRunning(t *testing.T) {
	s := New(testLogger())
	job := newStubJob("nightly")
	job.block = make(chan struct{})
	require.NoError(t, s.AddJob(job))

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			s.runJob(job)
		}()
	}

	// Let the first run start and the second attempt hit the guard.
	require.Eventually(t, func() bool {
		return job.runs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	close(job.block)
	wg.Wait()

	assert.Equal(t, int32(1), job.runs.Load())

	history, err := s.GetJobHistory("nightly")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
}

func TestRunJob_RecordsFailureAfterRetries(t *testing.T) {
	s := New(testLogger())
	s.maxRetries = 1
	s.retryDelay = time.Millisecond

	job := newStubJob("flaky")
	job.err = errors.New("boom")
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(2), job.runs.Load())

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, "boom", history.Results[0].Error)
	assert.Equal(t, 0.0, history.GetSuccessRate())
}

func TestGetJobStats(t *testing.T) {
	s := New(testLogger())
	s.retryDelay = time.Millisecond

	job := newStubJob("nightly")
	require.NoError(t, s.AddJob(job))

	s.runJob(job)
	s.runJob(job)

	stats := s.GetJobStats()
	require.Contains(t, stats, "nightly")
	assert.Equal(t, "@hourly", stats["nightly"].Schedule)
	assert.Equal(t, 2, stats["nightly"].TotalRuns)
	assert.Equal(t, 2, stats["nightly"].SuccessCount)
	assert.Equal(t, 1.0, stats["nightly"].SuccessRate)
	require.NotNil(t, stats["nightly"].LastSuccess)
	assert.Nil(t, stats["nightly"].LastFailure)
}

func TestJobHistory_Caps(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "nightly", Success: true})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(10), 10)
	assert.Len(t, h.GetLatestResults(500), 100)
}
