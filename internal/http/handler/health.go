package handler

import (
	"net/http"
	"time"

	"github.com/taskmesh/scheduler/internal/http/response"
)

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}
