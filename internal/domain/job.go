// Package domain holds the coordinator's core types: jobs, schedule
// templates, results, and worker records. Nothing in this package touches
// storage or transport — it is pure data plus the small amount of behavior
// (state transitions, encoding helpers) that every layer above it depends on.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a Job.
//
// Status transitions form a DAG: PENDING -> RUNNING -> {COMPLETED, FAILED,
// RETRYING}; RETRYING -> RUNNING. CANCELED is reserved and currently
// unreachable — no operation produces it.
type JobStatus string

const (
	StatusPending   JobStatus = "PENDING"
	StatusRunning   JobStatus = "RUNNING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
	StatusCanceled  JobStatus = "CANCELED"
	StatusRetrying  JobStatus = "RETRYING"
)

// Priority selects which of the three strict-priority FIFOs a job is
// dispatched from. HIGH starves MEDIUM, MEDIUM starves LOW — no aging.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// DefaultMaxRetries is applied to a submitted job when the caller does not
// specify one.
const DefaultMaxRetries = 3

// Job is either a schedule template or a concrete, dispatchable unit of
// work. The two shapes are mutually exclusive:
//
//   - Schedule template: Schedule != "", IsRecurring == true,
//     ParentScheduleID == nil.
//   - Concrete job: Schedule == "", IsRecurring == false. ParentScheduleID
//     is set when it was materialized from a template.
//
// Collapsing these into one struct (rather than a closed sum type) matches
// the wire format in spec §3 and §6, where both shapes ride the same JSON
// envelope; IsRecurring is the discriminant.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Command   string    `json:"command"`
	Args      []string  `json:"args"`
	Status    JobStatus `json:"status"`
	Timestamp time.Time `json:"timestamp"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	Priority Priority `json:"priority"`

	// Schedule template fields. Empty/zero on a concrete job.
	Schedule    string     `json:"schedule,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRecurring bool       `json:"is_recurring,omitempty"`

	// ParentScheduleID references the template that materialized this job.
	// Nil for schedule templates and for jobs submitted directly.
	ParentScheduleID *uuid.UUID `json:"parent_schedule_id,omitempty"`
}

// IsTemplate reports whether j is a schedule template rather than a
// dispatchable concrete job.
func (j *Job) IsTemplate() bool {
	return j.IsRecurring
}

// Materialize builds a fresh concrete job from a schedule template: new id,
// zeroed retry count, PENDING status, submitted now, linked back to the
// template via ParentScheduleID. Command, args, priority and max retries are
// copied from the template.
func (j *Job) Materialize(now time.Time) Job {
	parent := j.ID
	return Job{
		ID:               uuid.New(),
		Command:          j.Command,
		Args:             append([]string(nil), j.Args...),
		Status:           StatusPending,
		Timestamp:        now,
		RetryCount:       0,
		MaxRetries:       j.MaxRetries,
		Priority:         j.Priority,
		ParentScheduleID: &parent,
	}
}

// JobResult is the outcome a worker reports for a job's most recent
// execution. A result exists in the cache iff the job has reached a
// terminal status at least once.
type JobResult struct {
	ExitCode int32  `json:"exitcode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// WorkerStatus is the liveness state of a registered worker.
type WorkerStatus string

const (
	WorkerAlive WorkerStatus = "ALIVE"
	WorkerDead  WorkerStatus = "DEAD"
)

// WorkerInfo is a registered worker. Workers are never persisted — they are
// rebuilt entirely from re-registration after a coordinator restart.
type WorkerInfo struct {
	WorkerID      uuid.UUID  `json:"worker_id"`
	Hostname      string     `json:"hostname"`
	LastSeen      time.Time  `json:"last_seen"`
	Status        WorkerStatus `json:"status"`
	CurrentJobID  *uuid.UUID `json:"current_job_id,omitempty"`
}

// LivenessTimeout is how long a worker may go without a heartbeat before the
// liveness sweep declares it dead and reclaims its in-flight job.
const LivenessTimeout = 60 * time.Second
