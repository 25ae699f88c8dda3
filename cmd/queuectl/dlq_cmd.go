package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rezkam/queuectl/internal/clock"
	"github.com/rezkam/queuectl/internal/dlq"
	"github.com/rezkam/queuectl/internal/queue"
)

func runDLQ(ctx context.Context, store queue.Store, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("dlq: expected 'list' or 'retry'")
	}
	op := dlq.New(store, clock.System{})
	switch args[0] {
	case "list":
		return runDLQList(ctx, op)
	case "retry":
		if len(args) != 2 {
			return fmt.Errorf("dlq retry: expected <id>")
		}
		return op.Retry(ctx, args[1])
	default:
		return fmt.Errorf("dlq: unknown subcommand %q", args[0])
	}
}

func runDLQList(ctx context.Context, op *dlq.Operator) error {
	jobs, err := op.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tATTEMPTS\tLAST_ERROR\tCOMMAND")
	for _, j := range jobs {
		lastErr := ""
		if j.LastError != nil {
			lastErr = *j.LastError
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", j.ID, j.Attempts, lastErr, j.Command)
	}
	return nil
}
