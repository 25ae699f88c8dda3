package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rezkam/queuectl/internal/domain"
	"github.com/rezkam/queuectl/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
)

// fakeWorkerExecutable writes a script that execs into "sleep 100" so the
// spawned process responds to SIGTERM the same way a real worker would,
// without actually running queuectl's __run-worker entrypoint.
func fakeWorkerExecutable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-worker.sh")
	script := "#!/bin/sh\nexec sleep 100\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func setupSupervisorTest(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSpawnAndStopWorkers(t *testing.T) {
	store := setupSupervisorTest(t)
	ctx := context.Background()
	exe := fakeWorkerExecutable(t)

	s := New(store, "queuectl_test.db")

	for i := 0; i < 2; i++ {
		require.NoError(t, s.spawnWorker(ctx, exe))
	}

	running, err := store.RunningWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, running, 2)
	for _, w := range running {
		require.Equal(t, domain.WorkerRunning, w.Status)
	}

	require.NoError(t, s.StopWorkers(ctx))

	stillRunning, err := store.RunningWorkers(ctx)
	require.NoError(t, err)
	require.Empty(t, stillRunning)

	all, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSpawnWorker_MissingExecutableFails(t *testing.T) {
	store := setupSupervisorTest(t)
	ctx := context.Background()
	s := New(store, "queuectl_test.db")

	err := s.spawnWorker(ctx, filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestWaitAll_ReturnsWhenAllDone(t *testing.T) {
	a := &workerProc{id: "a", done: make(chan struct{})}
	b := &workerProc{id: "b", done: make(chan struct{})}
	close(a.done)
	close(b.done)

	done := make(chan struct{})
	go func() {
		waitAll([]*workerProc{a, b}, time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitAll did not return once all children were done")
	}
}

func TestWaitAll_TimesOutOnStuckChild(t *testing.T) {
	stuck := &workerProc{id: "stuck", done: make(chan struct{})}

	start := time.Now()
	waitAll([]*workerProc{stuck}, 50*time.Millisecond)
	elapsed := time.Since(start)

	require.Less(t, elapsed, time.Second, fmt.Sprintf("waitAll blocked for %s past its timeout", elapsed))
}
