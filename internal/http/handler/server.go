package handler

import (
	"github.com/taskmesh/scheduler/internal/queue"
)

// Server binds the dispatcher API's HTTP handlers to the queue core. It
// holds no state of its own; every method is a thin translation layer
// between JSON wire shapes and core operations (spec §4.3).
type Server struct {
	core *queue.Core
}

func NewServer(core *queue.Core) *Server {
	return &Server{core: core}
}
