package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rezkam/queuectl/internal/clock"
	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/queue"
)

func runList(ctx context.Context, store queue.Store, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	state := fs.String("state", "", "filter by job state")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filter *domain.JobState
	if *state != "" {
		s := domain.JobState(*state)
		if !s.Valid() {
			return fmt.Errorf("list: unrecognized state %q", *state)
		}
		filter = &s
	}

	jobs, err := store.ListJobs(ctx, filter)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tSTATE\tATTEMPTS\tMAX_RETRIES\tPRIORITY\tDUE_AT\tCOMMAND")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			j.ID, j.State, j.Attempts, j.MaxRetries, j.Priority, j.DueAt.Format(clock.ISOFormat), j.Command)
	}
	return nil
}
