// Package queue defines the storage contract the claim engine, worker
// runtime, and DLQ operator share, plus the pure retry/backoff policy.
// Concrete backends (internal/storage/sqlite) implement Store.
package queue

import (
	"context"
	"time"

	"github.com/rezkam/queuectl/internal/domain"
)

// Store is the durable, transactional backend holding jobs/workers/config.
// Every mutation that changes job state is conditional on the job's
// current state (and, once claimed, on the claiming worker's id), which is
// how concurrent workers serialize correctly without a
// generic read-modify-write race.
type Store interface {
	// InsertJob inserts a new job row. Returns ErrDuplicateID if the id
	// already exists (globally, including terminal jobs).
	InsertJob(ctx context.Context, job *domain.Job) error

	// ClaimOne atomically selects and locks the next-eligible job for
	// workerID, per the ordering key (−priority, due_at ASC, created_at
	// ASC). Returns (nil, nil) when nothing is eligible.
	ClaimOne(ctx context.Context, workerID string, now time.Time) (*domain.Job, error)

	// CompleteJob marks the job completed. Conditional on the job still
	// being processing and owned by workerID; a no-op otherwise (lost
	// ownership is not expected in this spec but is handled defensively).
	CompleteJob(ctx context.Context, id, workerID string, attempts int, output *string, now time.Time) error

	// RetryJob marks the job failed with a new due_at for the next
	// backoff-scheduled attempt. Conditional as CompleteJob.
	RetryJob(ctx context.Context, id, workerID string, attempts int, output, lastError *string, dueAt, now time.Time) error

	// DeadLetterJob marks the job dead (attempts exceeded max_retries).
	// due_at is left unchanged. Conditional as CompleteJob.
	DeadLetterJob(ctx context.Context, id, workerID string, attempts int, output, lastError *string, now time.Time) error

	// ListJobs returns jobs ordered by insertion (created_at ASC), optionally
	// filtered to a single state.
	ListJobs(ctx context.Context, state *domain.JobState) ([]*domain.Job, error)

	// CountByState returns the number of jobs in each state.
	CountByState(ctx context.Context) (map[domain.JobState]int, error)

	// DeadJobs returns jobs in the dead state, ordered by updated_at DESC.
	DeadJobs(ctx context.Context) ([]*domain.Job, error)

	// RetryDeadJob re-admits a dead job to pending. Conditional on
	// state='dead'; returns ErrNotFound if the job isn't in the DLQ.
	RetryDeadJob(ctx context.Context, id string, now time.Time) error

	// RegisterWorker inserts a new workers row.
	RegisterWorker(ctx context.Context, w *domain.Worker) error
	// UpdateWorkerStatus updates a worker's status and pid. When status is
	// WorkerStopped, stopped_at is set to now.
	UpdateWorkerStatus(ctx context.Context, id string, status domain.WorkerStatus, pid int, now time.Time) error
	// UpdateHeartbeat writes heartbeat_at for id unconditionally (best-effort caller).
	UpdateHeartbeat(ctx context.Context, id string, now time.Time) error
	// ListWorkers returns workers whose status is not "stopped".
	ListWorkers(ctx context.Context) ([]*domain.Worker, error)
	// RunningWorkers returns every worker row whose status is starting or
	// running, regardless of which process registered it — used by the
	// supervisor to sweep orphans left by a prior invocation.
	RunningWorkers(ctx context.Context) ([]*domain.Worker, error)

	// GetConfig returns all recognized config keys and their current values.
	GetConfig(ctx context.Context) (map[string]string, error)
	// SetConfig upserts key=value. Returns ErrUnknownConfigKey for unrecognized keys.
	SetConfig(ctx context.Context, key, value string) error

	// Close releases the underlying connection(s).
	Close() error
}
