package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskmesh/scheduler/internal/domain"
	"github.com/taskmesh/scheduler/internal/http/response"
	"github.com/taskmesh/scheduler/internal/ptr"
	"github.com/taskmesh/scheduler/internal/recurring"
)

// SubmitJob handles POST /job. A schedule that parses as cron (6-field, or
// 5-field promoted by prepending "0 ") produces a schedule template
// instead of a one-shot job, matching spec §6's "recurring iff schedule
// parses" rule.
func (s *Server) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w)
		return
	}

	priority := ptr.Deref(req.Priority, domain.PriorityLow)

	job := domain.Job{
		ID:         uuid.New(),
		Command:    req.Command,
		Args:       req.Args,
		Status:     domain.StatusPending,
		Timestamp:  time.Now().UTC(),
		MaxRetries: domain.DefaultMaxRetries,
		Priority:   priority,
	}

	if req.Schedule != nil {
		if expr, ok := recurring.Normalize(*req.Schedule); ok {
			next, err := recurring.Next(expr, job.Timestamp)
			if err != nil {
				response.InternalError(w, r, err)
				return
			}
			job.Schedule = expr
			job.IsRecurring = true
			job.NextRun = &next
		}
	}

	if err := s.core.Submit(r.Context(), job); err != nil {
		response.InternalError(w, r, err)
		return
	}

	response.OK(w, job)
}

// JobList handles POST /job/list.
func (s *Server) JobList(w http.ResponseWriter, r *http.Request) {
	var req jobListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w)
		return
	}

	if req.StatusSearch != nil && !validStatus(*req.StatusSearch) {
		response.FromDomainError(w, r, domain.ErrBadFilter)
		return
	}

	jobs := s.core.List(req.StatusSearch)
	response.OK(w, jobListResponse{List: jobs})
}

func validStatus(status domain.JobStatus) bool {
	switch status {
	case domain.StatusPending, domain.StatusRunning, domain.StatusCompleted,
		domain.StatusFailed, domain.StatusCanceled, domain.StatusRetrying:
		return true
	default:
		return false
	}
}

// JobStatus handles GET /job/{id}.
func (s *Server) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, domain.ErrMalformedID)
		return
	}

	job, result, err := s.core.GetStatus(id)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, jobStatusResponse{Job: job, Result: result})
}

// JobResults handles POST /job/{id}/results.
func (s *Server) JobResults(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, domain.ErrMalformedID)
		return
	}

	var req jobResultReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w)
		return
	}

	result := domain.JobResult{ExitCode: req.ExitCode, Stdout: req.Stdout, Stderr: req.Stderr}
	if err := s.core.ReportResult(r.Context(), id, result); err != nil {
		response.InternalError(w, r, err)
		return
	}

	response.OK(w, result)
}
