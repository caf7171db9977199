package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	run      func(ctx context.Context) error

	mu    sync.Mutex
	calls int
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	if j.run == nil {
		return nil
	}
	return j.run(ctx)
}

func (j *fakeJob) callCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}))
	s.retryDelay = time.Millisecond
	return s
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	s := testScheduler(t)

	require.NoError(t, s.AddJob(&fakeJob{name: "nightly", schedule: "0 0 2 * * *"}))
	err := s.AddJob(&fakeJob{name: "nightly", schedule: "0 0 3 * * *"})
	assert.ErrorContains(t, err, "already exists")
}

func TestAddJobRejectsBadCronExpression(t *testing.T) {
	s := testScheduler(t)

	err := s.AddJob(&fakeJob{name: "broken", schedule: "not a cron expr"})
	assert.ErrorContains(t, err, "failed to schedule job broken")
}

func TestFireRetriesUntilSuccess(t *testing.T) {
	s := testScheduler(t)

	attempts := 0
	job := &fakeJob{name: "flaky", schedule: "@daily", run: func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}}
	require.NoError(t, s.AddJob(job))

	s.fire("flaky")

	assert.Equal(t, 3, job.callCount())
	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 0, stats.Failures)
	assert.Empty(t, stats.LastError)
	require.NotNil(t, stats.LastRun)
}

func TestFireRecordsFailureAfterRetriesExhausted(t *testing.T) {
	s := testScheduler(t)

	job := &fakeJob{name: "doomed", schedule: "@daily", run: func(ctx context.Context) error {
		return errors.New("db unreachable")
	}}
	require.NoError(t, s.AddJob(job))

	s.fire("doomed")

	assert.Equal(t, 4, job.callCount()) // initial attempt + 3 retries
	stats := s.GetJobStats()["doomed"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, "db unreachable", stats.LastError)
}

func TestFireSkipsOverlappingRun(t *testing.T) {
	s := testScheduler(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	job := &fakeJob{name: "slow", schedule: "@daily", run: func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}}
	require.NoError(t, s.AddJob(job))

	done := make(chan struct{})
	go func() {
		s.fire("slow")
		close(done)
	}()
	<-entered

	// Second slot fires while the first run is still in flight.
	s.fire("slow")

	close(release)
	<-done

	assert.Equal(t, 1, job.callCount())
	stats := s.GetJobStats()["slow"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.Skipped)
}

func TestStopCancelsInflightJob(t *testing.T) {
	s := testScheduler(t)

	entered := make(chan struct{})
	job := &fakeJob{name: "longrun", schedule: "@daily", run: func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()
		return ctx.Err()
	}}
	require.NoError(t, s.AddJob(job))

	done := make(chan struct{})
	go func() {
		s.fire("longrun")
		close(done)
	}()
	<-entered

	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not observe cancellation")
	}

	stats := s.GetJobStats()["longrun"]
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, context.Canceled.Error(), stats.LastError)
}

func TestGetAllJobs(t *testing.T) {
	s := testScheduler(t)

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@weekly"}))

	assert.ElementsMatch(t, []string{"a", "b"}, s.GetAllJobs())
}
