package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/taskmesh/scheduler/internal/domain"
	"github.com/taskmesh/scheduler/internal/http/response"
)

// RegisterWorker handles POST /worker/register.
func (s *Server) RegisterWorker(w http.ResponseWriter, r *http.Request) {
	var req workerRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w)
		return
	}

	worker := s.core.RegisterWorker(domain.WorkerInfo{
		WorkerID: req.WorkerID,
		Hostname: req.Hostname,
	}, time.Now().UTC())

	response.OK(w, worker)
}

// Heartbeat handles POST /worker/heartbeat. Unknown worker ids are
// ignored silently (spec §6).
func (s *Server) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req workerHeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w)
		return
	}

	s.core.UpdateHeartbeat(req.WorkerID, req.Timestamp)
	w.WriteHeader(http.StatusOK)
}

// NextJob handles GET /job/next.
func (s *Server) NextJob(w http.ResponseWriter, r *http.Request) {
	var req nextJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w)
		return
	}

	job, err := s.core.NextJob(r.Context(), req.WorkerID)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, job)
}
