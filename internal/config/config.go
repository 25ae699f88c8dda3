// Package config resolves queuectl's environment-variable surface,
// reusing this stack's reflection-based env.Load for the simple flags and
// handling the DB-path precedence/prefix rules by hand since they need more
// than a single struct tag expresses.
package config

import (
	"os"
	"strings"

	"github.com/rezkam/queuectl/internal/env"
)

const defaultDBPath = "queuectl.db"

// Config is the process-wide environment configuration for every queuectl
// subcommand.
type Config struct {
	// DBPath is the resolved SQLite file path, after QUEUECTL_DB/DATABASE_URL
	// precedence and sqlite:/// prefix stripping.
	DBPath string

	// OTelEnabled toggles the optional metrics pipeline (internal/observability).
	OTelEnabled bool `env:"QUEUECTL_OTEL_ENABLED"`
}

// Load resolves Config from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg); err != nil {
		return nil, err
	}
	cfg.DBPath = resolveDBPath()
	return &cfg, nil
}

// resolveDBPath implements the documented precedence: QUEUECTL_DB wins
// over DATABASE_URL; a "sqlite:///" prefix on either is stripped; the
// fallback is "queuectl.db" in the current directory.
func resolveDBPath() string {
	if v, ok := os.LookupEnv("QUEUECTL_DB"); ok && v != "" {
		return stripSQLitePrefix(v)
	}
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		return stripSQLitePrefix(v)
	}
	return defaultDBPath
}

func stripSQLitePrefix(path string) string {
	return strings.TrimPrefix(path, "sqlite:///")
}
