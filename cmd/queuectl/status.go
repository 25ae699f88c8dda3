package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rezkam/queuectl/internal/clock"
	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/queue"
)

var jobStateOrder = []domain.JobState{
	domain.JobPending,
	domain.JobProcessing,
	domain.JobCompleted,
	domain.JobFailed,
	domain.JobDead,
}

func runStatus(ctx context.Context, store queue.Store) error {
	counts, err := store.CountByState(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Println("jobs:")
	for _, s := range jobStateOrder {
		fmt.Printf("  %s: %d\n", s, counts[s])
	}

	workers, err := store.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Println("workers:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tPID\tSTATUS\tHEARTBEAT_AT")
	for _, wk := range workers {
		fmt.Fprintf(w, "  %s\t%d\t%s\t%s\n", wk.ID, wk.PID, wk.Status, wk.HeartbeatAt.Format(clock.ISOFormat))
	}
	return w.Flush()
}
