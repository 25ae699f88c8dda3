// Package worker implements the per-process claim/execute/transition loop
// adapted from this stack's GenerationWorker: a claim against
// the shared store, a heartbeat fiber running alongside it, panic-isolated
// execution, and routing of the outcome to the right terminal or retry state.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/rezkam/queuectl/internal/clock"
	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/executor"
	"github.com/rezkam/queuectl/internal/observability"
	"github.com/rezkam/queuectl/internal/ptr"
	"github.com/rezkam/queuectl/internal/queue"
)

// heartbeatInterval is fixed, not configurable.
const heartbeatInterval = 5 * time.Second

// Worker runs the claim/execute/transition loop for one worker id until its
// context is cancelled. Shutdown is only honored between iterations, never
// in the middle of an Executor.Run call.
type Worker struct {
	id      string
	store   queue.Store
	exec    executor.Executor
	clk     clock.Clock
	metrics *observability.Metrics
}

// Option configures a Worker at construction time.
type Option func(*Worker)

// WithExecutor overrides the default Shell executor, mainly for tests.
func WithExecutor(e executor.Executor) Option {
	return func(w *Worker) { w.exec = e }
}

// WithClock overrides the default System clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(w *Worker) { w.clk = c }
}

// WithMetrics attaches an optional metrics sink. A nil *observability.Metrics
// is safe to pass; every method on it is a no-op.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// New constructs a Worker identified by id against store.
func New(id string, store queue.Store, opts ...Option) *Worker {
	w := &Worker{
		id:    id,
		store: store,
		exec:  executor.Shell{},
		clk:   clock.System{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run marks the worker running, starts its heartbeat fiber, and loops
// claim -> execute -> transition until ctx is cancelled. The workers row
// itself is created by the Supervisor before this process is spawned; Run
// only updates that existing row rather than inserting a new one.
func (w *Worker) Run(ctx context.Context) error {
	now := w.clk.Now()
	if err := w.store.UpdateWorkerStatus(ctx, w.id, domain.WorkerRunning, os.Getpid(), now); err != nil {
		return fmt.Errorf("failed to mark worker %s running: %w", w.id, err)
	}
	if err := w.store.UpdateHeartbeat(ctx, w.id, now); err != nil {
		return fmt.Errorf("failed to record initial heartbeat for worker %s: %w", w.id, err)
	}

	heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	go w.runHeartbeat(heartbeatCtx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cfg, err := w.store.GetConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		pollInterval := parseFloat(cfg[domain.ConfigPollInterval], 0.5)
		jobTimeout := parseFloat(cfg[domain.ConfigJobTimeout], 120)
		backoffBase := parseFloat(cfg[domain.ConfigBackoffBase], 2)

		job, err := w.store.ClaimOne(ctx, w.id, w.clk.Now())
		if err != nil {
			return fmt.Errorf("failed to claim job: %w", err)
		}
		if job == nil {
			if !sleepCtx(ctx, time.Duration(pollInterval*float64(time.Second))) {
				return ctx.Err()
			}
			continue
		}

		// A Store error on the transition path is fatal to this worker
		// process: the job is left processing for operator
		// intervention rather than silently retried from a corrupt loop.
		if err := w.runJob(ctx, job, jobTimeout, backoffBase); err != nil {
			return err
		}
	}
}

func (w *Worker) runJob(ctx context.Context, job *domain.Job, jobTimeout, backoffBase float64) error {
	slog.InfoContext(ctx, "claimed job", "job_id", job.ID, "worker_id", w.id)
	w.metrics.Claimed(ctx)
	start := w.clk.Now()

	timeout := time.Duration(jobTimeout * float64(time.Second))
	result := w.executeWithRecovery(ctx, job, timeout)
	output := truncate(result.Output, domain.MaxOutputBytes)
	now := w.clk.Now()

	if result.Success {
		if err := w.store.CompleteJob(ctx, job.ID, w.id, job.Attempts+1, ptr.To(output), now); err != nil {
			return fmt.Errorf("failed to complete job %s: %w", job.ID, err)
		}
		slog.InfoContext(ctx, "job completed", "job_id", job.ID)
		w.metrics.Completed(ctx, now.Sub(start))
		return nil
	}

	attempts := job.Attempts + 1
	lastError := ptr.To(result.Err)

	if attempts > job.MaxRetries {
		if err := w.store.DeadLetterJob(ctx, job.ID, w.id, attempts, ptr.To(output), lastError, now); err != nil {
			return fmt.Errorf("failed to dead-letter job %s: %w", job.ID, err)
		}
		slog.WarnContext(ctx, "job exhausted retries", "job_id", job.ID, "attempts", attempts, "error", result.Err)
		w.metrics.Dead(ctx, now.Sub(start))
		return nil
	}

	dueAt := queue.NextDueAt(now, attempts, backoffBase)
	if err := w.store.RetryJob(ctx, job.ID, w.id, attempts, ptr.To(output), lastError, dueAt, now); err != nil {
		return fmt.Errorf("failed to schedule retry for job %s: %w", job.ID, err)
	}
	slog.InfoContext(ctx, "job scheduled for retry", "job_id", job.ID, "attempts", attempts, "due_at", dueAt, "error", result.Err)
	w.metrics.Failed(ctx, now.Sub(start))
	return nil
}

// executeWithRecovery runs the job's command, converting a panicking
// Executor into an ordinary failure result rather than crashing the worker
// process (the same panic-isolation shape as the coordinator this worker is
// adapted from).
func (w *Worker) executeWithRecovery(ctx context.Context, job *domain.Job, timeout time.Duration) (result executor.Result) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := string(debug.Stack())
			slog.ErrorContext(ctx, "job panicked", "job_id", job.ID, "panic", r, "stack", stackTrace)
			result = executor.Result{Success: false, Err: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return w.exec.Run(ctx, job.Command, timeout)
}

// runHeartbeat writes heartbeat_at every 5 seconds until ctx is cancelled.
// Store errors here are logged and swallowed: a missed heartbeat is
// never fatal to the worker.
func (w *Worker) runHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.UpdateHeartbeat(ctx, w.id, w.clk.Now()); err != nil {
				slog.WarnContext(ctx, "heartbeat failed", "worker_id", w.id, "error", err)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func parseFloat(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
