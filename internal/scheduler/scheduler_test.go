package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingJob parks in RunContext until its context is cancelled.
type blockingJob struct {
	once    sync.Once
	started chan struct{}
}

func newBlockingJob() *blockingJob {
	return &blockingJob{started: make(chan struct{})}
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) RunContext(ctx context.Context) error {
	j.once.Do(func() { close(j.started) })
	<-ctx.Done()
	return ctx.Err()
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("every full moon", NewQuotaResetJob(func() {}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider_quota_reset")
}

func TestStopCancelsContextJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := newBlockingJob()
	require.NoError(t, s.AddContextJob("@every 10ms", job))

	s.Start()

	select {
	case <-job.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	// Stop must unblock the parked job via context cancellation, not
	// hang waiting for it.
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the running job")
	}
}
