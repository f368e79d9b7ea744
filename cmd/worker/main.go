// Command worker is the execution worker runtime: it registers with a
// coordinator, sends periodic heartbeats, and loops polling for jobs to
// run locally and report back (spec §9, external collaborator).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/taskmesh/scheduler/internal/config"
	"github.com/taskmesh/scheduler/internal/workerclient"
	"github.com/taskmesh/scheduler/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := observability.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	workerID := uuid.New()

	client := workerclient.New(cfg.CoordinatorAddr)

	if _, err := client.Register(ctx, workerID, hostname); err != nil {
		return fmt.Errorf("register with coordinator: %w", err)
	}
	slog.InfoContext(ctx, "registered with coordinator", "worker_id", workerID, "hostname", hostname)

	go heartbeatLoop(ctx, client, workerID, cfg.HeartbeatInterval)

	pollLoop(ctx, client, workerID, cfg.PollBackoff)
	return nil
}

func heartbeatLoop(ctx context.Context, client *workerclient.Client, workerID uuid.UUID, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(ctx, workerID, time.Now().UTC()); err != nil {
				slog.WarnContext(ctx, "heartbeat failed", "error", err)
			}
		}
	}
}

func pollLoop(ctx context.Context, client *workerclient.Client, workerID uuid.UUID, backoff time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := client.NextJob(ctx, workerID)
		if err != nil {
			if !errors.Is(err, workerclient.ErrNoJob) {
				slog.ErrorContext(ctx, "failed to poll for job", "error", err)
			}
			sleep(ctx, backoff)
			continue
		}

		slog.InfoContext(ctx, "received job", "job_id", job.ID, "command", job.Command)
		result := workerclient.Execute(ctx, job)

		if err := client.ReportResult(ctx, job.ID, result); err != nil {
			slog.ErrorContext(ctx, "failed to report result", "job_id", job.ID, "error", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
