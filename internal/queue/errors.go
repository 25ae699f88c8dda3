package queue

import "errors"

// Sentinel errors returned by Store implementations.
var (
	// ErrDuplicateID is returned by InsertJob when the id already exists,
	// live or terminal (id uniqueness is global and permanent).
	ErrDuplicateID = errors.New("job id already exists")

	// ErrUnknownConfigKey is returned by SetConfig for a key outside the
	// four recognized names, rather than a process exit — the CLI layer
	// turns it into a non-zero exit code.
	ErrUnknownConfigKey = errors.New("unrecognized config key")

	// ErrNotFound is returned by RetryDeadJob when the id isn't currently
	// in the dead state (including if it doesn't exist at all).
	ErrNotFound = errors.New("job not found in DLQ")
)
