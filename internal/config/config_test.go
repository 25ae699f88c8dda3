package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultDBPath(t *testing.T) {
	t.Setenv("QUEUECTL_DB", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "queuectl.db", cfg.DBPath)
	assert.False(t, cfg.OTelEnabled)
}

func TestLoad_QueuectlDBWinsOverDatabaseURL(t *testing.T) {
	t.Setenv("QUEUECTL_DB", "sqlite:///from-queuectl.db")
	t.Setenv("DATABASE_URL", "sqlite:///from-database-url.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-queuectl.db", cfg.DBPath)
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	t.Setenv("QUEUECTL_DB", "")
	t.Setenv("DATABASE_URL", "sqlite:///fallback.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fallback.db", cfg.DBPath)
}

func TestLoad_OTelEnabledFlag(t *testing.T) {
	t.Setenv("QUEUECTL_OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.OTelEnabled)
}
