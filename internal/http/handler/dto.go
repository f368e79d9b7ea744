package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskmesh/scheduler/internal/domain"
)

// submitJobRequest is the body of POST /job.
type submitJobRequest struct {
	Command  string          `json:"command"`
	Args     []string        `json:"args"`
	Priority *domain.Priority `json:"priority,omitempty"`
	Schedule *string         `json:"schedule,omitempty"`
}

// jobListRequest is the body of POST /job/list.
type jobListRequest struct {
	StatusSearch *domain.JobStatus `json:"status_search,omitempty"`
}

// jobListResponse is the body of POST /job/list's 200 response.
type jobListResponse struct {
	List []domain.Job `json:"list"`
}

// nextJobRequest is the body of GET /job/next.
type nextJobRequest struct {
	WorkerID uuid.UUID `json:"worker_id"`
}

// jobStatusResponse is the body of GET /job/{id}'s 200 response.
type jobStatusResponse struct {
	Job    domain.Job        `json:"job"`
	Result *domain.JobResult `json:"result,omitempty"`
}

// workerRegisterRequest is the body of POST /worker/register.
type workerRegisterRequest struct {
	WorkerID uuid.UUID `json:"worker_id"`
	Hostname string    `json:"hostname"`
}

// workerHeartbeatRequest is the body of POST /worker/heartbeat.
type workerHeartbeatRequest struct {
	WorkerID  uuid.UUID `json:"worker_id"`
	Timestamp time.Time `json:"timestamp"`
}

// jobResultReportRequest is the body of POST /job/{id}/results.
type jobResultReportRequest struct {
	ExitCode int32  `json:"exitcode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
