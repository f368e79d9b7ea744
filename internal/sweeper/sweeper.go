// Package sweeper runs the coordinator's two background tasks: the
// liveness sweep (dead-worker detection and job reclaim) and the schedule
// sweep (recurring job materialization). Both are thin ticker loops over
// queue.Core methods; neither holds the core lock across a tick boundary
// (spec §4.4, §4.5).
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskmesh/scheduler/internal/queue"
)

// LivenessSweep invokes core.CheckWorkers every interval until ctx is
// canceled.
func LivenessSweep(ctx context.Context, core *queue.Core, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case tick := <-ticker.C:
			if err := core.CheckWorkers(ctx, tick); err != nil {
				slog.ErrorContext(ctx, "liveness sweep failed", "error", err)
			}
		}
	}
}

// ScheduleSweep invokes core.CheckScheduledJobs every interval until ctx is
// canceled.
func ScheduleSweep(ctx context.Context, core *queue.Core, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case tick := <-ticker.C:
			if err := core.CheckScheduledJobs(ctx, tick); err != nil {
				slog.ErrorContext(ctx, "schedule sweep failed", "error", err)
			}
		}
	}
}
