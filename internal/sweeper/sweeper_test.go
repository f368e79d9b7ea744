package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmesh/scheduler/internal/domain"
	"github.com/taskmesh/scheduler/internal/queue"
)

type nopStore struct{}

func (nopStore) Init(ctx context.Context) error { return nil }
func (nopStore) InsertJob(ctx context.Context, job domain.Job) error { return nil }
func (nopStore) InsertResult(ctx context.Context, jobID uuid.UUID, result domain.JobResult) error {
	return nil
}
func (nopStore) UpdateStatus(ctx context.Context, jobID uuid.UUID, status domain.JobStatus) error {
	return nil
}
func (nopStore) UpdateRetryCount(ctx context.Context, jobID uuid.UUID, count int) error { return nil }
func (nopStore) UpdateNextRun(ctx context.Context, scheduleID uuid.UUID, next time.Time) error {
	return nil
}
func (nopStore) LoadPending(ctx context.Context) ([]domain.Job, error) { return nil, nil }
func (nopStore) Close() error                                         { return nil }

func TestLivenessSweep_StopsOnContextCancel(t *testing.T) {
	core, err := queue.New(context.Background(), nopStore{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- LivenessSweep(ctx, core, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancel")
	}
}

func TestScheduleSweep_StopsOnContextCancel(t *testing.T) {
	core, err := queue.New(context.Background(), nopStore{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ScheduleSweep(ctx, core, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancel")
	}
}
