// Package supervisor spawns and reaps the OS processes that run worker
// loops. Each worker is this same binary, re-executed with a hidden
// subcommand — the self-exec pattern this stack doesn't itself need (its
// server and worker are already separate binaries), adopted here because
// a single queuectl binary is the natural shape for an installable CLI.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/idgen"
	"github.com/rezkam/queuectl/internal/queue"
)

// RunWorkerSubcommand is the hidden argument queuectl re-execs itself with
// to become a worker process.
const RunWorkerSubcommand = "__run-worker"

const (
	shutdownGrace = 2 * time.Second
	reapGrace     = 1 * time.Second
)

// workerProc tracks one spawned child.
type workerProc struct {
	id   string
	cmd  *exec.Cmd
	done chan struct{}
}

// Supervisor spawns worker processes and tracks the children it started in
// memory, scoped to this struct rather than package-level state. Worker
// processes themselves never consult this registry.
type Supervisor struct {
	store  queue.Store
	dbPath string

	mu       sync.Mutex
	children []*workerProc
}

// New constructs a Supervisor. dbPath is passed to each spawned worker so it
// can open its own connection to the same database file.
func New(store queue.Store, dbPath string) *Supervisor {
	return &Supervisor{store: store, dbPath: dbPath}
}

// Start spawns n worker processes and blocks until ctx is cancelled, then
// runs StopWorkers against a fresh background context (ctx is already done
// by that point).
func (s *Supervisor) Start(ctx context.Context, n int) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	for i := 0; i < n; i++ {
		if err := s.spawnWorker(ctx, exe); err != nil {
			return err
		}
	}

	<-ctx.Done()
	slog.InfoContext(context.Background(), "supervisor shutting down", "worker_count", n)
	return s.StopWorkers(context.Background())
}

func (s *Supervisor) spawnWorker(ctx context.Context, exe string) error {
	id, err := idgen.NewWorkerID()
	if err != nil {
		return fmt.Errorf("failed to generate worker id: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	// pid is a placeholder until the child process actually starts.
	if err := s.store.RegisterWorker(ctx, &domain.Worker{
		ID:          id,
		PID:         os.Getpid(),
		Status:      domain.WorkerStarting,
		StartedAt:   now,
		HeartbeatAt: now,
	}); err != nil {
		return fmt.Errorf("failed to register worker %s: %w", id, err)
	}

	cmd := exec.Command(exe, RunWorkerSubcommand, "--id", id, "--db", s.dbPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start worker process %s: %w", id, err)
	}

	if err := s.store.UpdateWorkerStatus(ctx, id, domain.WorkerRunning, cmd.Process.Pid, time.Now().UTC().Truncate(time.Second)); err != nil {
		slog.WarnContext(ctx, "failed to record worker pid", "worker_id", id, "error", err)
	}

	wp := &workerProc{id: id, cmd: cmd, done: make(chan struct{})}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.WarnContext(context.Background(), "worker process exited", "worker_id", id, "error", err)
		}
		close(wp.done)
	}()

	s.mu.Lock()
	s.children = append(s.children, wp)
	s.mu.Unlock()

	slog.InfoContext(ctx, "worker started", "worker_id", id, "pid", cmd.Process.Pid)
	return nil
}

// StopWorkers sends SIGTERM to every tracked child and to any worker row
// left `running` by a prior invocation of the supervisor, waits up to 2s,
// escalates survivors to SIGKILL, then marks any still-running rows stopped.
func (s *Supervisor) StopWorkers(ctx context.Context) error {
	s.mu.Lock()
	children := append([]*workerProc(nil), s.children...)
	s.mu.Unlock()

	tracked := make(map[int]bool, len(children))
	for _, wp := range children {
		tracked[wp.cmd.Process.Pid] = true
		signalProcess(wp.cmd.Process.Pid, syscall.SIGTERM)
	}

	running, err := s.store.RunningWorkers(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to list running workers during shutdown", "error", err)
	}
	for _, w := range running {
		if !tracked[w.PID] {
			signalProcess(w.PID, syscall.SIGTERM)
		}
	}

	waitAll(children, shutdownGrace)

	for _, wp := range children {
		select {
		case <-wp.done:
		default:
			slog.WarnContext(ctx, "worker did not exit after SIGTERM, killing", "worker_id", wp.id)
			signalProcess(wp.cmd.Process.Pid, syscall.SIGKILL)
		}
	}

	waitAll(children, reapGrace)

	now := time.Now().UTC().Truncate(time.Second)
	stillRunning, err := s.store.RunningWorkers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list running workers after shutdown: %w", err)
	}
	for _, w := range stillRunning {
		if err := s.store.UpdateWorkerStatus(ctx, w.ID, domain.WorkerStopped, w.PID, now); err != nil {
			slog.WarnContext(ctx, "failed to mark worker stopped", "worker_id", w.ID, "error", err)
		}
	}
	return nil
}

// waitAll blocks until every child in procs has exited or timeout elapses,
// whichever comes first.
func waitAll(procs []*workerProc, timeout time.Duration) {
	deadline := time.After(timeout)
	for _, wp := range procs {
		select {
		case <-wp.done:
		case <-deadline:
			return
		}
	}
}

// signalProcess best-effort signals pid; a process that's already gone is
// not an error worth surfacing during shutdown.
func signalProcess(pid int, sig syscall.Signal) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = proc.Signal(sig)
}
