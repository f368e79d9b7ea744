package handler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskmesh/scheduler/internal/domain"
	"github.com/taskmesh/scheduler/internal/queue"
)

// newTestServer builds a Server backed by a fresh in-memory store, for
// handler tests that exercise real HTTP request/response plumbing.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	core, err := queue.New(context.Background(), newMemStore())
	require.NoError(t, err)
	return NewServer(core)
}

// memStore is a minimal in-memory storage.Store for exercising the HTTP
// handlers without a real database, mirroring internal/queue's own test
// double.
type memStore struct {
	jobs map[uuid.UUID]domain.Job
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[uuid.UUID]domain.Job)}
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) InsertJob(ctx context.Context, job domain.Job) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *memStore) InsertResult(ctx context.Context, jobID uuid.UUID, result domain.JobResult) error {
	return nil
}

func (m *memStore) UpdateStatus(ctx context.Context, jobID uuid.UUID, status domain.JobStatus) error {
	job := m.jobs[jobID]
	job.Status = status
	m.jobs[jobID] = job
	return nil
}

func (m *memStore) UpdateRetryCount(ctx context.Context, jobID uuid.UUID, count int) error {
	job := m.jobs[jobID]
	job.RetryCount = count
	m.jobs[jobID] = job
	return nil
}

func (m *memStore) UpdateNextRun(ctx context.Context, scheduleID uuid.UUID, next time.Time) error {
	job := m.jobs[scheduleID]
	job.NextRun = &next
	m.jobs[scheduleID] = job
	return nil
}

func (m *memStore) LoadPending(ctx context.Context) ([]domain.Job, error) {
	var out []domain.Job
	for _, job := range m.jobs {
		if job.IsTemplate() || job.Status == domain.StatusPending || job.Status == domain.StatusRunning {
			out = append(out, job)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }
