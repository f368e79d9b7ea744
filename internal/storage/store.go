// Package storage defines the durable persistence contract the queue core
// depends on. Concrete backends (internal/storage/sqlite) implement Store.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmesh/scheduler/internal/domain"
)

// Store is the durable persistence contract for jobs, schedule templates,
// and job results. The queue core is the sole caller; every method is
// expected to be safe to invoke while the core holds its mutex, i.e. it must
// not block on anything but local I/O.
type Store interface {
	// Init creates the store's schema if it does not already exist. Must be
	// idempotent.
	Init(ctx context.Context) error

	// InsertJob persists a new job row, concrete or schedule template.
	InsertJob(ctx context.Context, job domain.Job) error

	// InsertResult appends a result row for jobID.
	InsertResult(ctx context.Context, jobID uuid.UUID, result domain.JobResult) error

	// UpdateStatus updates a job's status column.
	UpdateStatus(ctx context.Context, jobID uuid.UUID, status domain.JobStatus) error

	// UpdateRetryCount updates a job's retry_count column.
	UpdateRetryCount(ctx context.Context, jobID uuid.UUID, count int) error

	// UpdateNextRun advances a schedule template's next_run column.
	UpdateNextRun(ctx context.Context, scheduleID uuid.UUID, next time.Time) error

	// LoadPending returns every job whose status is PENDING or RUNNING, plus
	// every schedule template regardless of its status, ordered by timestamp
	// ascending, for startup rehydration.
	LoadPending(ctx context.Context) ([]domain.Job, error)

	// Close releases underlying resources (connections, file handles).
	Close() error
}
