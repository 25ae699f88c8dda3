package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShell_Success(t *testing.T) {
	result := Shell{}.Run(context.Background(), "echo hello", time.Second)
	require.True(t, result.Success)
	assert.Equal(t, "hello\n", result.Output)
	assert.Empty(t, result.Err)
}

func TestShell_NonZeroExit(t *testing.T) {
	result := Shell{}.Run(context.Background(), "exit 7", time.Second)
	require.False(t, result.Success)
	assert.Equal(t, "Command failed with exit code 7", result.Err)
}

func TestShell_Timeout(t *testing.T) {
	result := Shell{}.Run(context.Background(), "sleep 5", 50*time.Millisecond)
	require.False(t, result.Success)
	assert.Contains(t, result.Err, "Job timed out after")
}

func TestShell_OutputCapturedOnFailure(t *testing.T) {
	result := Shell{}.Run(context.Background(), "echo oops >&2; exit 1", time.Second)
	require.False(t, result.Success)
	assert.Equal(t, "oops\n", result.Output)
}
