package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rezkam/queuectl/internal/config"
	"github.com/rezkam/queuectl/internal/queue"
	"github.com/rezkam/queuectl/internal/supervisor"
)

func runWorker(ctx context.Context, store queue.Store, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("worker: expected 'start' or 'stop'")
	}
	switch args[0] {
	case "start":
		return runWorkerStart(store, cfg, args[1:])
	case "stop":
		return runWorkerStop(ctx, store)
	default:
		return fmt.Errorf("worker: unknown subcommand %q", args[0])
	}
}

// runWorkerStart spawns --count worker processes and blocks until SIGINT or
// SIGTERM, at which point the Supervisor fans shutdown out to every child.
func runWorkerStart(store queue.Store, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("worker start", flag.ContinueOnError)
	count := fs.Int("count", 1, "number of worker processes to start")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count < 1 {
		return fmt.Errorf("worker start: --count must be at least 1")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sup := supervisor.New(store, cfg.DBPath)
	return sup.Start(ctx, *count)
}

// runWorkerStop terminates every running worker, including ones left behind
// by a prior "worker start" invocation that's no longer attached to a tty.
func runWorkerStop(ctx context.Context, store queue.Store) error {
	sup := supervisor.New(store, "")
	return sup.StopWorkers(ctx)
}
