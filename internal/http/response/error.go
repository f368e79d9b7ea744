package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskmesh/scheduler/internal/domain"
	"github.com/taskmesh/scheduler/internal/queue"
)

// ErrorResponse is the standard error response envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BadRequest sends a 400 with an empty body. The malformed-id contract
// (spec §7) calls for no JSON envelope here, unlike the JSON 404 and 500
// paths.
func BadRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
}

// NotFoundText sends a 404 with a plain-text body, used for the
// empty-queue response on /job/next.
func NotFoundText(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(message))
}

// NotFound sends a 404 JSON error response.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// InternalError logs err server-side and returns a generic 500, avoiding
// leaking internal detail in the response body.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic JSON error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// FromDomainError maps a domain/queue error to the HTTP response required
// by spec §7.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMalformedID):
		BadRequest(w)
	case errors.Is(err, domain.ErrBadFilter):
		BadRequest(w)
	case errors.Is(err, domain.ErrJobNotFound):
		NotFound(w, "job")
	case errors.Is(err, queue.ErrQueueEmpty):
		NotFoundText(w, "no job available")
	default:
		InternalError(w, r, err)
	}
}
