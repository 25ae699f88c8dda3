// Package executor runs job commands in a subprocess shell.
//
// This is deliberately a thin capability: a command string plus a timeout in,
// a (success, output, error) result out. Everything upstream of it (the
// retry/backoff state machine, the claim protocol) is blind to how the
// command actually ran.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Result is the outcome of a single command execution.
type Result struct {
	Success bool
	// Output is the combined stdout+stderr, captured regardless of Success.
	Output string
	// Err is the human-readable failure reason. Empty when Success is true.
	Err string
}

// Executor runs a shell command with a wall-clock timeout.
type Executor interface {
	Run(ctx context.Context, command string, timeout time.Duration) Result
}

// Shell runs commands through "sh -c", the same way an operator would from
// a terminal.
type Shell struct{}

// Run executes command under a timeout derived from ctx. Combined
// stdout+stderr is always returned in Result.Output, truncation to the
// store's byte cap happens upstream in the worker runtime.
func (Shell) Run(ctx context.Context, command string, timeout time.Duration) Result {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	output := buf.String()

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{
			Success: false,
			Output:  output,
			Err:     fmt.Sprintf("Job timed out after %v seconds", timeout.Seconds()),
		}
	}

	if runErr == nil {
		return Result{Success: true, Output: output}
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return Result{
			Success: false,
			Output:  output,
			Err:     fmt.Sprintf("Command failed with exit code %d", exitErr.ExitCode()),
		}
	}

	// Unexpected failure to even launch the command (missing shell, etc).
	return Result{Success: false, Output: output, Err: runErr.Error()}
}
