package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/queuectl/internal/config"
	"github.com/rezkam/queuectl/internal/observability"
	"github.com/rezkam/queuectl/internal/storage/sqlite"
	"github.com/rezkam/queuectl/internal/supervisor"
	"github.com/rezkam/queuectl/internal/worker"
)

// runWorkerProcess is what a child spawned by the Supervisor actually runs:
// "queuectl __run-worker --id <id> --db <path>". It owns its own store
// connection and installs its own shutdown signal handling, independent of
// the parent Supervisor process.
func runWorkerProcess(args []string) error {
	fs := flag.NewFlagSet(supervisor.RunWorkerSubcommand, flag.ContinueOnError)
	id := fs.String("id", "", "worker id assigned by the supervisor")
	dbPath := fs.String("db", "", "database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *dbPath == "" {
		return fmt.Errorf("%s: --id and --db are required", supervisor.RunWorkerSubcommand)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	metrics, err := observability.New(ctx, observability.Config{Enabled: cfg.OTelEnabled})
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	w := worker.New(*id, store, worker.WithMetrics(metrics))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker %s exited: %w", *id, err)
	}
	return nil
}
