package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/ptr"
)

const workerColumns = `id, pid, status, started_at, heartbeat_at, stopped_at`

func scanWorker(row interface {
	Scan(dest ...any) error
}) (*domain.Worker, error) {
	var w domain.Worker
	var status string
	var startedAt, heartbeatAt string
	var stoppedAt sql.NullString

	if err := row.Scan(&w.ID, &w.PID, &status, &startedAt, &heartbeatAt, &stoppedAt); err != nil {
		return nil, err
	}

	w.Status = domain.WorkerStatus(status)
	var err error
	if w.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at: %w", err)
	}
	if w.HeartbeatAt, err = parseTime(heartbeatAt); err != nil {
		return nil, fmt.Errorf("invalid heartbeat_at: %w", err)
	}
	if stoppedAt.Valid {
		t, err := parseTime(stoppedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stopped_at: %w", err)
		}
		w.StoppedAt = ptr.To(t)
	}
	return &w, nil
}

// RegisterWorker implements queue.Store.
func (s *Store) RegisterWorker(ctx context.Context, w *domain.Worker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, pid, status, started_at, heartbeat_at, stopped_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.PID, string(w.Status), formatTime(w.StartedAt), formatTime(w.HeartbeatAt), nil)
	if err != nil {
		return fmt.Errorf("failed to register worker %s: %w", w.ID, err)
	}
	return nil
}

// UpdateWorkerStatus implements queue.Store.
func (s *Store) UpdateWorkerStatus(ctx context.Context, id string, status domain.WorkerStatus, pid int, now time.Time) error {
	var stoppedAt any
	if status == domain.WorkerStopped {
		stoppedAt = formatTime(now)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE workers SET status=?, pid=?, heartbeat_at=?, stopped_at=COALESCE(stopped_at, ?)
		WHERE id=?`,
		string(status), pid, formatTime(now), stoppedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update worker %s status: %w", id, err)
	}
	return nil
}

// UpdateHeartbeat implements queue.Store.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE workers SET heartbeat_at=? WHERE id=?`, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("failed to update worker %s heartbeat: %w", id, err)
	}
	return nil
}

// ListWorkers implements queue.Store.
func (s *Store) ListWorkers(ctx context.Context) ([]*domain.Worker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE status != 'stopped' ORDER BY started_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []*domain.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// RunningWorkers implements queue.Store. Used by the supervisor's
// StopWorkers to find workers, including ones registered by a prior,
// possibly crashed, invocation.
func (s *Store) RunningWorkers(ctx context.Context) ([]*domain.Worker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workerColumns+` FROM workers
		WHERE status IN (?, ?) ORDER BY started_at ASC`,
		string(domain.WorkerStarting), string(domain.WorkerRunning))
	if err != nil {
		return nil, fmt.Errorf("failed to list running workers: %w", err)
	}
	defer rows.Close()

	var workers []*domain.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}
