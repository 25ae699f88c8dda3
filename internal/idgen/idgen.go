// Package idgen generates the opaque ids used for jobs and workers.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewJobID returns the fallback job id used when a submission doesn't
// supply one: "job-<unix-seconds>".
func NewJobID(now time.Time) string {
	return fmt.Sprintf("job-%d", now.Unix())
}

// NewWorkerID returns a fresh "worker-<8 hex chars>" id, backed by
// crypto/rand the same way this stack derives other opaque identifiers.
func NewWorkerID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate worker id: %w", err)
	}
	return "worker-" + hex.EncodeToString(buf), nil
}
