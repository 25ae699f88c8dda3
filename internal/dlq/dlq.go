// Package dlq exposes the operator-facing dead-letter-queue operations
// listing dead jobs and re-admitting one to pending. It's a
// thin wrapper over queue.Store, the same shape as this stack's dead-letter
// operations on GenerationCoordinator, simplified because this system's DLQ
// is a logical subset of the jobs table rather than a separate one.
package dlq

import (
	"context"
	"errors"
	"fmt"

	"github.com/rezkam/queuectl/internal/clock"
	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/queue"
)

// Operator lists and retries dead jobs.
type Operator struct {
	store queue.Store
	clk   clock.Clock
}

// New constructs an Operator.
func New(store queue.Store, clk clock.Clock) *Operator {
	return &Operator{store: store, clk: clk}
}

// List returns every job in the dead state, most recently dead-lettered first.
func (o *Operator) List(ctx context.Context) ([]*domain.Job, error) {
	jobs, err := o.store.DeadJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letter queue: %w", err)
	}
	return jobs, nil
}

// Retry moves job id from dead back to pending, resetting attempts to 0 and
// due_at to now. Returns an error naming the job if it isn't
// currently dead.
func (o *Operator) Retry(ctx context.Context, id string) error {
	if err := o.store.RetryDeadJob(ctx, id, o.clk.Now()); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return fmt.Errorf("job '%s' not found in DLQ", id)
		}
		return fmt.Errorf("failed to retry job %s: %w", id, err)
	}
	return nil
}
