// Package queue implements the coordinator's in-memory state machine: job
// registry, three priority FIFOs, worker registry, and result cache. A
// single mutex serializes every operation; the workload is small and store
// I/O is local, so coarse locking is the deliberate, documented tradeoff.
package queue

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmesh/scheduler/internal/domain"
	"github.com/taskmesh/scheduler/internal/recurring"
	"github.com/taskmesh/scheduler/internal/storage"
)

// ErrQueueEmpty is returned by NextJob when all three priority FIFOs are
// empty.
var ErrQueueEmpty = errors.New("no job available")

// scheduleFiringWindow is the +/- tolerance around a template's next_run
// within which a sweep tick will materialize a concrete job (spec §4.1).
const scheduleFiringWindow = 30 * time.Second

// Core is the coordinator's single stateful object. Every exported method
// acquires mu for its full duration; none perform network I/O, so the
// critical section stays short even under the store's local synchronous
// writes.
type Core struct {
	mu sync.Mutex

	store storage.Store

	jobs      map[uuid.UUID]*domain.Job
	schedules map[uuid.UUID]*domain.Job
	results   map[uuid.UUID]domain.JobResult
	workers   map[uuid.UUID]*domain.WorkerInfo

	pendingHigh   *list.List // of uuid.UUID
	pendingMedium *list.List
	pendingLow    *list.List
}

// New constructs a Core backed by store and rehydrates it from
// store.LoadPending: jobs in RUNNING are re-enqueued as PENDING in memory,
// since their prior worker either never completed or will produce a
// tolerated duplicate report (spec §4.2).
func New(ctx context.Context, store storage.Store) (*Core, error) {
	c := &Core{
		store:         store,
		jobs:          make(map[uuid.UUID]*domain.Job),
		schedules:     make(map[uuid.UUID]*domain.Job),
		results:       make(map[uuid.UUID]domain.JobResult),
		workers:       make(map[uuid.UUID]*domain.WorkerInfo),
		pendingHigh:   list.New(),
		pendingMedium: list.New(),
		pendingLow:    list.New(),
	}

	pending, err := store.LoadPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending jobs: %w", err)
	}

	for i := range pending {
		job := pending[i]
		if job.IsTemplate() {
			tmpl := job
			c.schedules[job.ID] = &tmpl
			continue
		}

		if job.Status == domain.StatusRunning {
			job.Status = domain.StatusPending
		}

		stored := job
		c.jobs[job.ID] = &stored
		c.fifoFor(job.Priority).PushBack(job.ID)
	}

	return c, nil
}

func (c *Core) fifoFor(p domain.Priority) *list.List {
	switch p {
	case domain.PriorityHigh:
		return c.pendingHigh
	case domain.PriorityMedium:
		return c.pendingMedium
	default:
		return c.pendingLow
	}
}

// Submit persists job then inserts it into memory: schedule templates go
// into the schedule set only, concrete jobs go into the registry and the
// FIFO matching their priority. Persist-then-mutate means a store failure
// leaves memory untouched (spec §7).
func (c *Core) Submit(ctx context.Context, job domain.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}

	stored := job
	if job.IsTemplate() {
		c.schedules[job.ID] = &stored
		return nil
	}

	c.jobs[job.ID] = &stored
	c.fifoFor(job.Priority).PushBack(job.ID)
	return nil
}

// NextJob pops the highest-priority pending job (HIGH, then MEDIUM, then
// LOW), transitions it to RUNNING, and records it as the requesting
// worker's current job. Returns ErrQueueEmpty if every FIFO is empty. An
// unknown workerID is tolerated: the job is still returned, since workers
// must register before polling but the core does not enforce that race.
func (c *Core) NextJob(ctx context.Context, workerID uuid.UUID) (domain.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem := c.popFront(c.pendingHigh)
	if elem == nil {
		elem = c.popFront(c.pendingMedium)
	}
	if elem == nil {
		elem = c.popFront(c.pendingLow)
	}
	if elem == nil {
		return domain.Job{}, ErrQueueEmpty
	}

	jobID := elem
	job, ok := c.jobs[*jobID]
	if !ok {
		// Registry and FIFO diverged; nothing sane to dispatch.
		return domain.Job{}, ErrQueueEmpty
	}

	if err := c.store.UpdateStatus(ctx, job.ID, domain.StatusRunning); err != nil {
		return domain.Job{}, fmt.Errorf("persist status for job %s: %w", job.ID, err)
	}
	job.Status = domain.StatusRunning

	if worker, ok := c.workers[workerID]; ok {
		id := job.ID
		worker.CurrentJobID = &id
	}

	return *job, nil
}

func (c *Core) popFront(fifo *list.List) *uuid.UUID {
	front := fifo.Front()
	if front == nil {
		return nil
	}
	fifo.Remove(front)
	id := front.Value.(uuid.UUID)
	return &id
}

// ReportResult applies a worker's execution report. Unknown job ids are
// ignored (idempotent, spec §7). A non-zero exit code with retries
// remaining moves the job back to RETRYING and re-enqueues it at the tail
// of its priority FIFO; otherwise the result is cached and the job reaches
// its terminal status. Per spec §7's recommendation, a report for a job
// already in a terminal status is ignored rather than overwriting the
// cached result.
func (c *Core) ReportResult(ctx context.Context, jobID uuid.UUID, result domain.JobResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[jobID]
	if !ok {
		return nil
	}

	if isTerminal(job.Status) {
		return nil
	}

	if result.ExitCode != 0 && job.RetryCount < job.MaxRetries {
		job.RetryCount++
		job.Status = domain.StatusRetrying

		if err := c.store.UpdateStatus(ctx, job.ID, domain.StatusRetrying); err != nil {
			return fmt.Errorf("persist retry status for job %s: %w", job.ID, err)
		}
		if err := c.store.UpdateRetryCount(ctx, job.ID, job.RetryCount); err != nil {
			return fmt.Errorf("persist retry count for job %s: %w", job.ID, err)
		}

		c.fifoFor(job.Priority).PushBack(job.ID)
		return nil
	}

	status := domain.StatusCompleted
	if result.ExitCode != 0 {
		status = domain.StatusFailed
	}

	if err := c.store.InsertResult(ctx, job.ID, result); err != nil {
		return fmt.Errorf("persist result for job %s: %w", job.ID, err)
	}
	if err := c.store.UpdateStatus(ctx, job.ID, status); err != nil {
		return fmt.Errorf("persist status for job %s: %w", job.ID, err)
	}

	c.results[job.ID] = result
	job.Status = status
	return nil
}

func isTerminal(s domain.JobStatus) bool {
	switch s {
	case domain.StatusCompleted, domain.StatusFailed, domain.StatusCanceled:
		return true
	default:
		return false
	}
}

// GetStatus looks up job in the registry, then the schedule set, and
// attaches the cached result if present. Returns domain.ErrJobNotFound if
// neither map has the id.
func (c *Core) GetStatus(jobID uuid.UUID) (domain.Job, *domain.JobResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[jobID]
	if !ok {
		job, ok = c.schedules[jobID]
	}
	if !ok {
		return domain.Job{}, nil, domain.ErrJobNotFound
	}

	if result, ok := c.results[jobID]; ok {
		r := result
		return *job, &r, nil
	}
	return *job, nil, nil
}

// List enumerates jobs and schedule templates, optionally filtered to a
// single status. Order is stable within a call (registry iteration order is
// not guaranteed across calls, matching spec §4.1's "order unspecified").
func (c *Core) List(filter *domain.JobStatus) []domain.Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Job, 0, len(c.jobs)+len(c.schedules))
	for _, job := range c.jobs {
		if filter == nil || job.Status == *filter {
			out = append(out, *job)
		}
	}
	for _, tmpl := range c.schedules {
		if filter == nil || tmpl.Status == *filter {
			out = append(out, *tmpl)
		}
	}
	return out
}

// RegisterWorker upserts a worker by id, resetting it to ALIVE with
// last_seen set to now.
func (c *Core) RegisterWorker(info domain.WorkerInfo, now time.Time) domain.WorkerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info.Status = domain.WorkerAlive
	info.LastSeen = now
	info.CurrentJobID = nil

	stored := info
	c.workers[info.WorkerID] = &stored
	return info
}

// UpdateHeartbeat refreshes a known worker's last_seen and revives it if it
// had been marked DEAD. Unknown worker ids are ignored silently.
func (c *Core) UpdateHeartbeat(workerID uuid.UUID, timestamp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	worker, ok := c.workers[workerID]
	if !ok {
		return
	}

	worker.LastSeen = timestamp
	if worker.Status == domain.WorkerDead {
		worker.Status = domain.WorkerAlive
	}
}

// CheckWorkers marks ALIVE workers whose last heartbeat is older than
// domain.LivenessTimeout as DEAD, clears their current job, and, if that job
// is still RUNNING, reclaims it back to PENDING at the tail of its priority
// FIFO — the
// at-least-once reclaim mechanism (spec §4.1). A worker completing after
// being declared dead produces a duplicate execution, which ReportResult
// tolerates.
func (c *Core) CheckWorkers(ctx context.Context, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for workerID, worker := range c.workers {
		if worker.Status != domain.WorkerAlive {
			continue
		}
		if now.Sub(worker.LastSeen) <= domain.LivenessTimeout {
			continue
		}

		reclaimed := worker.CurrentJobID
		worker.Status = domain.WorkerDead
		worker.CurrentJobID = nil

		slog.Warn("worker declared dead", "worker_id", workerID, "last_seen", worker.LastSeen)

		if reclaimed == nil {
			continue
		}

		job, ok := c.jobs[*reclaimed]
		if !ok || job.Status != domain.StatusRunning {
			// Only a job still in flight is reclaimed; one the worker already
			// reported is terminal or already back in its FIFO.
			continue
		}

		if err := c.store.UpdateStatus(ctx, job.ID, domain.StatusPending); err != nil {
			return fmt.Errorf("persist reclaim status for job %s: %w", job.ID, err)
		}
		job.Status = domain.StatusPending
		c.fifoFor(job.Priority).PushBack(job.ID)

		slog.Error("reclaimed job from dead worker", "worker_id", workerID, "job_id", job.ID)
	}

	return nil
}

// CheckScheduledJobs materializes a concrete job for every schedule
// template whose next_run falls within the firing window around now, then
// advances next_run to the template's next cron firing regardless of
// whether a job was materialized this tick (spec §4.1).
func (c *Core) CheckScheduledJobs(ctx context.Context, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, tmpl := range c.schedules {
		if tmpl.NextRun != nil {
			delta := tmpl.NextRun.Sub(now)
			if delta >= -scheduleFiringWindow && delta <= scheduleFiringWindow {
				materialized := tmpl.Materialize(now)
				if err := c.submitLocked(ctx, materialized); err != nil {
					return fmt.Errorf("materialize schedule %s: %w", id, err)
				}
			}
		}

		next, err := recurring.Next(tmpl.Schedule, now)
		if err != nil {
			slog.Error("failed to compute next cron firing", "schedule_id", id, "error", err)
			continue
		}

		if err := c.store.UpdateNextRun(ctx, id, next); err != nil {
			return fmt.Errorf("persist next_run for schedule %s: %w", id, err)
		}
		tmpl.NextRun = &next
	}

	return nil
}

// submitLocked is Submit's body, reused by CheckScheduledJobs which already
// holds mu.
func (c *Core) submitLocked(ctx context.Context, job domain.Job) error {
	if err := c.store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}

	stored := job
	c.jobs[job.ID] = &stored
	c.fifoFor(job.Priority).PushBack(job.ID)
	return nil
}
