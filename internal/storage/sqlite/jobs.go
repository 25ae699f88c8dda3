package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rezkam/queuectl/internal/clock"
	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/ptr"
	"github.com/rezkam/queuectl/internal/queue"
)

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(clock.ISOFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(clock.ISOFormat, s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return ptr.To(ns.String)
}

// InsertJob implements queue.Store.
func (s *Store) InsertJob(ctx context.Context, job *domain.Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, command, state, attempts, max_retries, priority, created_at, updated_at, due_at, last_error, output, picked_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Command, string(job.State), job.Attempts, job.MaxRetries, job.Priority,
		formatTime(job.CreatedAt), formatTime(job.UpdatedAt), formatTime(job.DueAt),
		nullString(job.LastError), nullString(job.Output), nullString(job.PickedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", queue.ErrDuplicateID, job.ID)
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func scanJob(row interface {
	Scan(dest ...any) error
}) (*domain.Job, error) {
	var j domain.Job
	var state string
	var createdAt, updatedAt, dueAt string
	var lastError, output, pickedBy sql.NullString

	if err := row.Scan(&j.ID, &j.Command, &state, &j.Attempts, &j.MaxRetries, &j.Priority,
		&createdAt, &updatedAt, &dueAt, &lastError, &output, &pickedBy); err != nil {
		return nil, err
	}

	j.State = domain.JobState(state)
	var err error
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}
	if j.DueAt, err = parseTime(dueAt); err != nil {
		return nil, fmt.Errorf("invalid due_at: %w", err)
	}
	j.LastError = fromNullString(lastError)
	j.Output = fromNullString(output)
	j.PickedBy = fromNullString(pickedBy)
	return &j, nil
}

const jobColumns = `id, command, state, attempts, max_retries, priority, created_at, updated_at, due_at, last_error, output, picked_by`

// ClaimOne implements queue.Store. See internal/storage/sqlite/connection.go
// for why _txlock=immediate makes this safe under concurrent callers.
func (s *Store) ClaimOne(ctx context.Context, workerID string, now time.Time) (*domain.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var candidate string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM jobs
		WHERE state IN ('pending', 'failed') AND due_at <= ?
		ORDER BY priority DESC, due_at ASC, created_at ASC
		LIMIT 1`, formatTime(now)).Scan(&candidate)
	if err == sql.ErrNoRows {
		return nil, tx.Commit()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select claim candidate: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET state='processing', picked_by=?, updated_at=?
		WHERE id=? AND state IN ('pending', 'failed')`,
		workerID, formatTime(now), candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read claim result: %w", err)
	}
	if affected == 0 {
		// Lost the race to another worker this cycle; uniform with "nothing eligible".
		return nil, tx.Commit()
	}

	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=?`, candidate)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read claimed job: %w", err)
	}

	return job, tx.Commit()
}

// transitionFromProcessing runs the shared conditional UPDATE backing
// CompleteJob/RetryJob/DeadLetterJob: ownership and state are re-verified
// at the row level, not assumed from the caller having claimed it earlier.
func (s *Store) transitionFromProcessing(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// CompleteJob implements queue.Store.
func (s *Store) CompleteJob(ctx context.Context, id, workerID string, attempts int, output *string, now time.Time) error {
	err := s.transitionFromProcessing(ctx, `
		UPDATE jobs SET state='completed', attempts=?, output=?, last_error=NULL, picked_by=NULL, updated_at=?
		WHERE id=? AND state='processing' AND picked_by=?`,
		attempts, nullString(output), formatTime(now), id, workerID)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", id, err)
	}
	return nil
}

// RetryJob implements queue.Store.
func (s *Store) RetryJob(ctx context.Context, id, workerID string, attempts int, output, lastError *string, dueAt, now time.Time) error {
	err := s.transitionFromProcessing(ctx, `
		UPDATE jobs SET state='failed', attempts=?, due_at=?, output=?, last_error=?, picked_by=NULL, updated_at=?
		WHERE id=? AND state='processing' AND picked_by=?`,
		attempts, formatTime(dueAt), nullString(output), nullString(lastError), formatTime(now), id, workerID)
	if err != nil {
		return fmt.Errorf("failed to retry job %s: %w", id, err)
	}
	return nil
}

// DeadLetterJob implements queue.Store. due_at is left unchanged.
func (s *Store) DeadLetterJob(ctx context.Context, id, workerID string, attempts int, output, lastError *string, now time.Time) error {
	err := s.transitionFromProcessing(ctx, `
		UPDATE jobs SET state='dead', attempts=?, output=?, last_error=?, picked_by=NULL, updated_at=?
		WHERE id=? AND state='processing' AND picked_by=?`,
		attempts, nullString(output), nullString(lastError), formatTime(now), id, workerID)
	if err != nil {
		return fmt.Errorf("failed to dead-letter job %s: %w", id, err)
	}
	return nil
}

// ListJobs implements queue.Store.
func (s *Store) ListJobs(ctx context.Context, state *domain.JobState) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if state != nil {
		query += ` WHERE state=?`
		args = append(args, string(*state))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountByState implements queue.Store.
func (s *Store) CountByState(ctx context.Context) (map[domain.JobState]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by state: %w", err)
	}
	defer rows.Close()

	counts := map[domain.JobState]int{}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		counts[domain.JobState(state)] = n
	}
	return counts, rows.Err()
}

// DeadJobs implements queue.Store.
func (s *Store) DeadJobs(ctx context.Context) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE state='dead' ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dead job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// RetryDeadJob implements queue.Store.
func (s *Store) RetryDeadJob(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state='pending', attempts=0, due_at=?, updated_at=?, last_error=NULL, picked_by=NULL
		WHERE id=? AND state='dead'`,
		formatTime(now), formatTime(now), id)
	if err != nil {
		return fmt.Errorf("failed to retry dead job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read retry result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: job '%s'", queue.ErrNotFound, id)
	}
	return nil
}
