package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{ errors atomic.Int32 }

func (l *nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.errors.Add(1)
}

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(&nopLogger{})
	err := s.AddJob("not a schedule", &countingJob{})
	assert.Error(t, err)
}

func TestScheduler_RunsJobs(t *testing.T) {
	log := &nopLogger{}
	s := New(log)
	job := &countingJob{err: errors.New("nope")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
	assert.GreaterOrEqual(t, log.errors.Load(), int32(1))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(&nopLogger{})
	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}
