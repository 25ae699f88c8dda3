// Package domain holds the data types shared by the store, claim engine,
// worker runtime, and CLI shell.
package domain

import "time"

// JobState is the lifecycle state of a Job. Transitions: pending or failed
// to processing (claim); processing to completed, failed or dead (worker);
// dead to pending (DLQ retry).
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobDead       JobState = "dead"
)

// Valid reports whether s is one of the five recognized job states.
func (s JobState) Valid() bool {
	switch s {
	case JobPending, JobProcessing, JobCompleted, JobFailed, JobDead:
		return true
	}
	return false
}

// MaxOutputBytes is the hard cap on Job.Output.
const MaxOutputBytes = 10_000

// Job is a persisted request to execute one shell command.
//
// State=processing if and only if PickedBy is non-nil.
// Once State is completed or dead, no field changes except through
// DLQ retry.
type Job struct {
	ID         string
	Command    string
	State      JobState
	Attempts   int
	MaxRetries int
	Priority   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DueAt      time.Time
	LastError  *string
	Output     *string
	PickedBy   *string
}

// WorkerStatus is the lifecycle state of a Worker process.
type WorkerStatus string

const (
	WorkerStarting WorkerStatus = "starting"
	WorkerRunning  WorkerStatus = "running"
	WorkerStopped  WorkerStatus = "stopped"
)

// Worker is a registered OS process that claims and runs jobs.
type Worker struct {
	ID          string
	PID         int
	Status      WorkerStatus
	StartedAt   time.Time
	HeartbeatAt time.Time
	StoppedAt   *time.Time
}

// Recognized config keys and their string-form defaults.
const (
	ConfigMaxRetries   = "max_retries"
	ConfigBackoffBase  = "backoff_base"
	ConfigPollInterval = "poll_interval"
	ConfigJobTimeout   = "job_timeout"
)

// DefaultConfig returns the default key/value pairs seeded into a fresh store.
func DefaultConfig() map[string]string {
	return map[string]string{
		ConfigMaxRetries:   "3",
		ConfigBackoffBase:  "2",
		ConfigPollInterval: "0.5",
		ConfigJobTimeout:   "120",
	}
}

// RecognizedConfigKeys reports whether key is one of the four keys SetConfig accepts.
func RecognizedConfigKeys(key string) bool {
	_, ok := DefaultConfig()[key]
	return ok
}
