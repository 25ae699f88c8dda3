package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/ptr"
	"github.com/rezkam/queuectl/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newJob(id string, priority int, dueAt, now time.Time) *domain.Job {
	return &domain.Job{
		ID:         id,
		Command:    "true",
		State:      domain.JobPending,
		MaxRetries: 3,
		Priority:   priority,
		CreatedAt:  now,
		UpdatedAt:  now,
		DueAt:      dueAt,
	}
}

func TestInsertJob_DuplicateIDFails(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertJob(ctx, newJob("j1", 0, now, now)))

	err := store.InsertJob(ctx, newJob("j1", 0, now, now))
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrDuplicateID)
}

func TestClaimOne_OrderingKey(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Lower priority but earlier created; higher priority should still win.
	require.NoError(t, store.InsertJob(ctx, newJob("low-priority", 0, now, now)))
	require.NoError(t, store.InsertJob(ctx, newJob("high-priority", 5, now, now.Add(time.Second))))

	job, err := store.ClaimOne(ctx, "worker-1", now)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "high-priority", job.ID)
	assert.Equal(t, domain.JobProcessing, job.State)
	assert.Equal(t, "worker-1", *job.PickedBy)
}

func TestClaimOne_SkipsNotYetDue(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertJob(ctx, newJob("future", 0, now.Add(time.Hour), now)))

	job, err := store.ClaimOne(ctx, "worker-1", now)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestClaimOne_EmptyWhenNothingEligible(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job, err := store.ClaimOne(ctx, "worker-1", now)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestCompleteJob_RequiresOwnership(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertJob(ctx, newJob("j1", 0, now, now)))
	job, err := store.ClaimOne(ctx, "worker-1", now)
	require.NoError(t, err)
	require.NotNil(t, job)

	// A different worker's complete call affects no rows; silently a no-op
	// rather than erroring, consistent with the conditional-update contract.
	require.NoError(t, store.CompleteJob(ctx, job.ID, "worker-2", 0, ptr.To("output"), now))
	jobs, err := store.ListJobs(ctx, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobProcessing, jobs[0].State)

	require.NoError(t, store.CompleteJob(ctx, job.ID, "worker-1", 0, ptr.To("output"), now))
	jobs, err = store.ListJobs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, jobs[0].State)
}

func TestRetryJob_ThenDeadLetterAfterMaxRetries(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job := newJob("j1", 0, now, now)
	job.MaxRetries = 1
	require.NoError(t, store.InsertJob(ctx, job))

	claimed, err := store.ClaimOne(ctx, "worker-1", now)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	dueAt := now.Add(2 * time.Second)
	require.NoError(t, store.RetryJob(ctx, claimed.ID, "worker-1", 1, ptr.To(""), ptr.To("exit 1"), dueAt, now))

	jobs, err := store.ListJobs(ctx, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobFailed, jobs[0].State)
	assert.Equal(t, 1, jobs[0].Attempts)
	assert.Nil(t, jobs[0].PickedBy)

	claimed, err = store.ClaimOne(ctx, "worker-1", dueAt)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, store.DeadLetterJob(ctx, claimed.ID, "worker-1", 2, ptr.To(""), ptr.To("exit 1"), dueAt))

	jobs, err = store.ListJobs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.JobDead, jobs[0].State)
	assert.Equal(t, 2, jobs[0].Attempts)
}

func TestRetryDeadJob_ResetsToPending(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	job := newJob("j1", 0, now, now)
	job.MaxRetries = 0
	require.NoError(t, store.InsertJob(ctx, job))

	claimed, err := store.ClaimOne(ctx, "worker-1", now)
	require.NoError(t, err)
	require.NoError(t, store.DeadLetterJob(ctx, claimed.ID, "worker-1", 1, ptr.To(""), ptr.To("exit 1"), now))

	require.NoError(t, store.RetryDeadJob(ctx, "j1", now))

	jobs, err := store.ListJobs(ctx, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobPending, jobs[0].State)
	assert.Equal(t, 0, jobs[0].Attempts)
	assert.Nil(t, jobs[0].LastError)
	assert.Nil(t, jobs[0].PickedBy)
}

func TestRetryDeadJob_NotFound(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.RetryDeadJob(ctx, "missing", time.Now().UTC())
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrNotFound)
}

func TestConfig_GetSetAndUnknownKey(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	cfg, err := store.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)

	require.NoError(t, store.SetConfig(ctx, domain.ConfigMaxRetries, "5"))
	cfg, err = store.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", cfg[domain.ConfigMaxRetries])

	err = store.SetConfig(ctx, "not_a_real_key", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrUnknownConfigKey)
}

func TestWorkerLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	w := &domain.Worker{ID: "worker-1", PID: 1234, Status: domain.WorkerStarting, StartedAt: now, HeartbeatAt: now}
	require.NoError(t, store.RegisterWorker(ctx, w))

	require.NoError(t, store.UpdateWorkerStatus(ctx, "worker-1", domain.WorkerRunning, 5678, now))

	running, err := store.RunningWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, 5678, running[0].PID)

	later := now.Add(5 * time.Second)
	require.NoError(t, store.UpdateHeartbeat(ctx, "worker-1", later))

	all, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, later, all[0].HeartbeatAt)

	require.NoError(t, store.UpdateWorkerStatus(ctx, "worker-1", domain.WorkerStopped, 5678, later))
	running, err = store.RunningWorkers(ctx)
	require.NoError(t, err)
	assert.Empty(t, running)
}
