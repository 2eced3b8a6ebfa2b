// Package coordlog manages the canonical append-only coordination log.
//
// This file defines sentinel errors and error wrappers for the writer
// path. These enable callers to use errors.Is/errors.As for typed
// assertions rather than string matching.
package coordlog

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for writer failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrLockTimeout indicates the sidecar lock could not be acquired
	// within the configured timeout.
	ErrLockTimeout = errors.New("lock timeout")

	// ErrAppendConflict indicates history mutation was detected: the log
	// is shorter than the writer's remembered offset, so a prior line was
	// edited or removed out-of-band.
	ErrAppendConflict = errors.New("append conflict")

	// ErrClosed indicates the manager has been closed.
	ErrClosed = errors.New("log manager closed")
)

// LockTimeoutError reports a failed lock acquisition with contention
// context. Matches ErrLockTimeout via errors.Is.
type LockTimeoutError struct {
	// Path is the lock sidecar path.
	Path string
	// Holder is the owner token of the writer holding the lock, if known.
	Holder string
	// Waited is how long acquisition retried before giving up.
	Waited time.Duration
}

func (e *LockTimeoutError) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("lock timeout on %s after %v (held by %s)", e.Path, e.Waited, e.Holder)
	}
	return fmt.Sprintf("lock timeout on %s after %v", e.Path, e.Waited)
}

// Is reports whether the error matches ErrLockTimeout.
func (e *LockTimeoutError) Is(target error) bool {
	return target == ErrLockTimeout
}

// AppendConflictError reports detected history mutation.
// Matches ErrAppendConflict via errors.Is.
type AppendConflictError struct {
	// Path is the log file path.
	Path string
	// Remembered is the writer's last known file size.
	Remembered int64
	// Actual is the observed file size under the lock.
	Actual int64
}

func (e *AppendConflictError) Error() string {
	return fmt.Sprintf("append conflict on %s: file shrunk from %d to %d bytes",
		e.Path, e.Remembered, e.Actual)
}

// Is reports whether the error matches ErrAppendConflict.
func (e *AppendConflictError) Is(target error) bool {
	return target == ErrAppendConflict
}
