// Package config loads coordinator and worker configuration from
// environment variables using internal/env.
package config

import (
	"fmt"
	"time"

	"github.com/taskmesh/scheduler/internal/env"
)

// CoordinatorConfig holds all configuration for the cmd/coordinator binary.
type CoordinatorConfig struct {
	HTTP          HTTPConfig
	Storage       StorageConfig
	Observability ObservabilityConfig

	// LivenessInterval is how often the liveness sweep runs (spec: 30s).
	LivenessInterval time.Duration `env:"SCHEDULER_LIVENESS_INTERVAL"`
	// ScheduleInterval is how often the schedule sweep runs (spec: 60s).
	ScheduleInterval time.Duration `env:"SCHEDULER_SCHEDULE_INTERVAL"`
	// ShutdownTimeout bounds how long bootstrap waits for in-flight
	// handlers to drain on SIGTERM/SIGINT.
	ShutdownTimeout time.Duration `env:"SCHEDULER_SHUTDOWN_TIMEOUT"`
}

// HTTPConfig holds Dispatcher API listener configuration.
type HTTPConfig struct {
	// Addr is the bind address. Spec mandates 127.0.0.1:8080; overridable
	// only so tests can bind an ephemeral port.
	Addr              string        `env:"SCHEDULER_HTTP_ADDR"`
	ReadHeaderTimeout time.Duration `env:"SCHEDULER_HTTP_READ_HEADER_TIMEOUT"`
	MaxBodyBytes      int64         `env:"SCHEDULER_HTTP_MAX_BODY_BYTES"`
}

// StorageConfig holds the SQLite store location.
type StorageConfig struct {
	// Path is the on-disk file, "scheduler.db" in the coordinator's
	// working directory per spec §6.
	Path string `env:"SCHEDULER_DB_PATH"`
}

// ObservabilityConfig controls OTLP export. Disabled by default so a local
// run doesn't block on a collector that isn't there.
type ObservabilityConfig struct {
	OTelEnabled   bool   `env:"SCHEDULER_OTEL_ENABLED"`
	ServiceName   string `env:"OTEL_SERVICE_NAME"`
	LogLevel      string `env:"SCHEDULER_LOG_LEVEL"`
}

// LoadCoordinatorConfig loads and defaults coordinator configuration.
func LoadCoordinatorConfig() (*CoordinatorConfig, error) {
	cfg := &CoordinatorConfig{
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 5 * time.Second,
			MaxBodyBytes:      1 << 20,
		},
		Storage: StorageConfig{Path: "scheduler.db"},
		Observability: ObservabilityConfig{
			ServiceName: "scheduler-coordinator",
			LogLevel:    "info",
		},
		LivenessInterval: 30 * time.Second,
		ScheduleInterval: 60 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load coordinator config: %w", err)
	}

	return cfg, nil
}

// WorkerConfig holds all configuration for the cmd/worker binary.
type WorkerConfig struct {
	CoordinatorAddr   string        `env:"SCHEDULER_COORDINATOR_ADDR"`
	HeartbeatInterval time.Duration `env:"SCHEDULER_WORKER_HEARTBEAT_INTERVAL"`
	PollBackoff       time.Duration `env:"SCHEDULER_WORKER_POLL_BACKOFF"`
	LogLevel          string        `env:"SCHEDULER_LOG_LEVEL"`
}

// LoadWorkerConfig loads and defaults worker configuration.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{
		CoordinatorAddr:   "http://127.0.0.1:8080",
		HeartbeatInterval: 10 * time.Second,
		PollBackoff:       5 * time.Second,
		LogLevel:          "info",
	}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}

	return cfg, nil
}
