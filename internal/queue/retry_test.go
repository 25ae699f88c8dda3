package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffSeconds(t *testing.T) {
	assert.Equal(t, 1.0, BackoffSeconds(0, 2))
	assert.Equal(t, 2.0, BackoffSeconds(1, 2))
	assert.Equal(t, 4.0, BackoffSeconds(2, 2))
	assert.Equal(t, 8.0, BackoffSeconds(3, 2))
}

func TestNextDueAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	due := NextDueAt(now, 1, 2)
	assert.Equal(t, now.Add(2*time.Second), due)

	due = NextDueAt(now, 3, 2)
	assert.Equal(t, now.Add(8*time.Second), due)
}
