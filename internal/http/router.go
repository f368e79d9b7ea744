package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/taskmesh/scheduler/internal/http/handler"
	mw "github.com/taskmesh/scheduler/internal/http/middleware"
)

// DefaultMaxBodyBytes caps a request body at 1MB, preventing a client from
// accidentally or maliciously sending an oversized payload.
const DefaultMaxBodyBytes = 1 << 20

// Config holds configuration for the HTTP router.
type Config struct {
	MaxBodyBytes int64
}

// NewRouter builds the dispatcher API's chi.Mux: global middleware plus the
// /api routes (including the health check) bound to server (spec §4.3, §6).
func NewRouter(server *handler.Server, config Config) *chi.Mux {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.MaxBodyBytes(config.MaxBodyBytes))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "dispatcher")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", server.Health)

		r.Post("/worker/register", server.RegisterWorker)
		r.Post("/worker/heartbeat", server.Heartbeat)

		r.Post("/job", server.SubmitJob)
		r.Post("/job/list", server.JobList)
		r.Get("/job/next", server.NextJob)
		r.Get("/job/{id}", server.JobStatus)
		r.Post("/job/{id}/results", server.JobResults)
	})

	return r
}
