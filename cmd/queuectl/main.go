// Command queuectl is the operator CLI and worker binary for a durable,
// single-host job queue: enqueue shell commands, run worker processes that
// claim and execute them with retry/backoff, and inspect or re-admit jobs
// that land in the dead letter queue.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rezkam/queuectl/internal/config"
	"github.com/rezkam/queuectl/internal/storage/sqlite"
	"github.com/rezkam/queuectl/internal/supervisor"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("no command given")
	}

	cmd, rest := args[0], args[1:]

	// The supervisor re-execs this binary with a hidden subcommand to become
	// a worker process; it manages its own store connection and flags
	// rather than sharing the generic bootstrap below.
	if cmd == supervisor.RunWorkerSubcommand {
		return runWorkerProcess(rest)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	switch cmd {
	case "enqueue":
		return runEnqueue(ctx, store, rest)
	case "list":
		return runList(ctx, store, rest)
	case "status":
		return runStatus(ctx, store)
	case "config":
		return runConfig(ctx, store, rest)
	case "worker":
		return runWorker(ctx, store, cfg, rest)
	case "dlq":
		return runDLQ(ctx, store, rest)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: queuectl <command> [args]

commands:
  enqueue <json>            insert a job; json: {"command":"...", "id":"...", "max_retries":N, "run_at":"...", "priority":N}
  list [--state STATE]      print jobs, optionally filtered by state
  status                    print job counts per state and running workers
  config get                print all config key=value pairs
  config set <key> <value>  update a config value
  worker start [--count N]  spawn N worker processes and wait for shutdown
  worker stop               terminate all running workers
  dlq list                  list dead jobs
  dlq retry <id>            re-admit a dead job to pending`)
}
