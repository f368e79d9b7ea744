// Command coordinator runs the scheduler coordinator: it opens the local
// store, rehydrates the queue core, spawns the liveness and schedule
// sweeps, and serves the dispatcher HTTP API until terminated (spec
// §4.6).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskmesh/scheduler/internal/config"
	dispatcher "github.com/taskmesh/scheduler/internal/http"
	"github.com/taskmesh/scheduler/internal/http/handler"
	"github.com/taskmesh/scheduler/internal/queue"
	"github.com/taskmesh/scheduler/internal/storage/sqlite"
	"github.com/taskmesh/scheduler/internal/sweeper"
	"github.com/taskmesh/scheduler/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coordinator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadCoordinatorConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logLevel := observability.ParseLevel(cfg.Observability.LogLevel)
	obs, err := observability.Init(ctx, cfg.Observability.ServiceName, cfg.Observability.OTelEnabled, logLevel)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	slog.SetDefault(obs.Logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shut down observability providers", "error", err)
		}
	}()

	slog.InfoContext(ctx, "starting scheduler coordinator", "addr", cfg.HTTP.Addr, "db", cfg.Storage.Path)

	store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Storage.Path})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	core, err := queue.New(ctx, store)
	if err != nil {
		return fmt.Errorf("construct queue core: %w", err)
	}

	server := handler.NewServer(core)
	router := dispatcher.NewRouter(server, dispatcher.Config{MaxBodyBytes: cfg.HTTP.MaxBodyBytes})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return sweeper.LivenessSweep(groupCtx, core, cfg.LivenessInterval)
	})
	group.Go(func() error {
		return sweeper.ScheduleSweep(groupCtx, core, cfg.ScheduleInterval)
	})
	group.Go(func() error {
		slog.InfoContext(groupCtx, "dispatcher listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve dispatcher api: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		slog.InfoContext(ctx, "shutting down dispatcher")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("coordinator stopped: %w", err)
	}
	return nil
}
