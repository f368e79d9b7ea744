package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmesh/scheduler/internal/domain"
)

// memStore is a minimal in-memory storage.Store for exercising the queue
// core without a real database.
type memStore struct {
	jobs    map[uuid.UUID]domain.Job
	results map[uuid.UUID][]domain.JobResult
}

func newMemStore() *memStore {
	return &memStore{
		jobs:    make(map[uuid.UUID]domain.Job),
		results: make(map[uuid.UUID][]domain.JobResult),
	}
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) InsertJob(ctx context.Context, job domain.Job) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *memStore) InsertResult(ctx context.Context, jobID uuid.UUID, result domain.JobResult) error {
	m.results[jobID] = append(m.results[jobID], result)
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

func newTestJob(priority domain.Priority) domain.Job {
	return domain.Job{
		ID:         uuid.New(),
		Command:    "echo",
		Args:       []string{"hello"},
		Status:     domain.StatusPending,
		Timestamp:  time.Now(),
		MaxRetries: domain.DefaultMaxRetries,
		Priority:   priority,
	}
}

func mustCore(t *testing.T) (*Core, *memStore) {
	t.Helper()
	store := newMemStore()
	core, err := New(context.Background(), store)
	require.NoError(t, err)
	return core, store
}

func TestNextJob_StrictPriorityOrder(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()

	low := newTestJob(domain.PriorityLow)
	high := newTestJob(domain.PriorityHigh)
	medium := newTestJob(domain.PriorityMedium)

	require.NoError(t, core.Submit(ctx, low))
	require.NoError(t, core.Submit(ctx, high))
	require.NoError(t, core.Submit(ctx, medium))

	first, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, high.ID, first.ID)

	second, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, medium.ID, second.ID)

	third, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, low.ID, third.ID)

	_, err = core.NextJob(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestReportResult_RetryThenSucceed(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()

	job := newTestJob(domain.PriorityHigh)
	require.NoError(t, core.Submit(ctx, job))

	dispatched, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, core.ReportResult(ctx, dispatched.ID, domain.JobResult{ExitCode: 1, Stderr: "boom"}))

	status, result, err := core.GetStatus(dispatched.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRetrying, status.Status)
	assert.Equal(t, 1, status.RetryCount)
	assert.Nil(t, result)

	redispatched, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, dispatched.ID, redispatched.ID)

	require.NoError(t, core.ReportResult(ctx, redispatched.ID, domain.JobResult{ExitCode: 0, Stdout: "ok"}))

	status, result, err = core.GetStatus(dispatched.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status.Status)
	require.NotNil(t, result)
	assert.Equal(t, "ok", result.Stdout)
}

func TestReportResult_ExhaustsRetriesThenFails(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()

	job := newTestJob(domain.PriorityHigh)
	job.MaxRetries = 2
	require.NoError(t, core.Submit(ctx, job))

	for i := 0; i < 3; i++ {
		dispatched, err := core.NextJob(ctx, uuid.New())
		require.NoError(t, err)
		require.NoError(t, core.ReportResult(ctx, dispatched.ID, domain.JobResult{ExitCode: 1}))
	}

	status, result, err := core.GetStatus(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, status.Status)
	assert.Equal(t, 2, status.RetryCount)
	require.NotNil(t, result)

	_, err = core.NextJob(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestReportResult_IgnoredOnceTerminal(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()

	job := newTestJob(domain.PriorityHigh)
	require.NoError(t, core.Submit(ctx, job))

	dispatched, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, core.ReportResult(ctx, dispatched.ID, domain.JobResult{ExitCode: 0, Stdout: "first"}))

	require.NoError(t, core.ReportResult(ctx, dispatched.ID, domain.JobResult{ExitCode: 0, Stdout: "second"}))

	_, result, err := core.GetStatus(dispatched.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "first", result.Stdout)
}

func TestReportResult_UnknownJobIsIgnored(t *testing.T) {
	core, _ := mustCore(t)
	err := core.ReportResult(context.Background(), uuid.New(), domain.JobResult{ExitCode: 0})
	assert.NoError(t, err)
}

func TestCheckWorkers_ReclaimsJobFromDeadWorker(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()
	now := time.Now()

	workerID := uuid.New()
	core.RegisterWorker(domain.WorkerInfo{WorkerID: workerID, Hostname: "h1"}, now)

	job := newTestJob(domain.PriorityHigh)
	require.NoError(t, core.Submit(ctx, job))

	dispatched, err := core.NextJob(ctx, workerID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, dispatched.ID)

	require.NoError(t, core.CheckWorkers(ctx, now.Add(domain.LivenessTimeout+time.Second)))

	status, _, err := core.GetStatus(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, status.Status)

	redispatched, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, job.ID, redispatched.ID)
}

func TestCheckWorkers_HeartbeatKeepsWorkerAlive(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()
	now := time.Now()

	workerID := uuid.New()
	core.RegisterWorker(domain.WorkerInfo{WorkerID: workerID, Hostname: "h1"}, now)
	core.UpdateHeartbeat(workerID, now.Add(50*time.Second))

	require.NoError(t, core.CheckWorkers(ctx, now.Add(55*time.Second)))

	core.mu.Lock()
	status := core.workers[workerID].Status
	core.mu.Unlock()
	assert.Equal(t, domain.WorkerAlive, status)
}

func TestCheckScheduledJobs_FiresWithinWindowAndAdvancesNextRun(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	dueAt := now.Add(10 * time.Second)

	tmpl := domain.Job{
		ID:          uuid.New(),
		Command:     "backup",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityMedium,
		MaxRetries:  domain.DefaultMaxRetries,
		IsRecurring: true,
		Schedule:    "0 */1 * * * *",
		NextRun:     &dueAt,
	}
	require.NoError(t, core.Submit(ctx, tmpl))

	require.NoError(t, core.CheckScheduledJobs(ctx, now))

	materialized, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, tmpl.Command, materialized.Command)
	require.NotNil(t, materialized.ParentScheduleID)
	assert.Equal(t, tmpl.ID, *materialized.ParentScheduleID)

	status, _, err := core.GetStatus(tmpl.ID)
	require.NoError(t, err)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(dueAt))
}

func TestCheckScheduledJobs_DoesNotFireOutsideWindow(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	farOut := now.Add(10 * time.Minute)

	tmpl := domain.Job{
		ID:          uuid.New(),
		Command:     "backup",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityMedium,
		MaxRetries:  domain.DefaultMaxRetries,
		IsRecurring: true,
		Schedule:    "0 0 * * * *",
		NextRun:     &farOut,
	}
	require.NoError(t, core.Submit(ctx, tmpl))

	require.NoError(t, core.CheckScheduledJobs(ctx, now))

	_, err := core.NextJob(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestGetStatus_UnknownJobReturnsNotFound(t *testing.T) {
	core, _ := mustCore(t)
	_, _, err := core.GetStatus(uuid.New())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestList_FiltersByStatus(t *testing.T) {
	core, _ := mustCore(t)
	ctx := context.Background()

	high := newTestJob(domain.PriorityHigh)
	low := newTestJob(domain.PriorityLow)
	require.NoError(t, core.Submit(ctx, high))
	require.NoError(t, core.Submit(ctx, low))

	_, err := core.NextJob(ctx, uuid.New())
	require.NoError(t, err)

	pendingStatus := domain.StatusPending
	pending := core.List(&pendingStatus)
	require.Len(t, pending, 1)
	assert.Equal(t, low.ID, pending[0].ID)

	all := core.List(nil)
	assert.Len(t, all, 2)
}

func TestNew_CoercesRunningJobsToPendingOnRehydrate(t *testing.T) {
	store := newMemStore()
	job := newTestJob(domain.PriorityHigh)
	job.Status = domain.StatusRunning
	require.NoError(t, store.InsertJob(context.Background(), job))

	core, err := New(context.Background(), store)
	require.NoError(t, err)

	dispatched, err := core.NextJob(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, job.ID, dispatched.ID)
}
