// Package metrics provides per-log metrics collection.
//
// The Collector accumulates counters for one coordination log. It is a leaf
// package with no internal dependencies. Counters cover the append pipeline
// (appends, lint rejections, lock contention) and the verification surface
// (parity failures); snapshots persist to a msgpack sidecar next to the log.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Append pipeline
	Appends        int64 `msgpack:"appends"`
	LintRejections int64 `msgpack:"lint_rejections"`
	Amends         int64 `msgpack:"amends"`
	Rotations      int64 `msgpack:"rotations"`

	// Lock contention
	LockAcquired  int64 `msgpack:"lock_acquired"`
	LockTimeouts  int64 `msgpack:"lock_timeouts"`
	LockConflicts int64 `msgpack:"lock_conflicts"`
	StaleBreaks   int64 `msgpack:"stale_breaks"`

	// Verification
	ParityFailures int64 `msgpack:"parity_failures"`
	DecodeErrors   int64 `msgpack:"decode_errors"`

	// Dimensions (informational, set at construction)
	LogPath string `msgpack:"log_path"`
	Writer  string `msgpack:"writer"`
}

// Collector accumulates metrics for one coordination log.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	appends        int64
	lintRejections int64
	amends         int64
	rotations      int64

	lockAcquired  int64
	lockTimeouts  int64
	lockConflicts int64
	staleBreaks   int64

	parityFailures int64
	decodeErrors   int64

	logPath string
	writer  string
}

// NewCollector creates a Collector with dimension labels.
// logPath identifies the coordination log; writer is the lock owner id.
func NewCollector(logPath, writer string) *Collector {
	return &Collector{logPath: logPath, writer: writer}
}

// IncAppend records a successful line append.
func (c *Collector) IncAppend() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.appends++
	c.mu.Unlock()
}

// IncLintRejection records a line rejected below the lint floor.
func (c *Collector) IncLintRejection() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lintRejections++
	c.mu.Unlock()
}

// IncAmend records an amendment pair (notice + corrected line).
func (c *Collector) IncAmend() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.amends++
	c.mu.Unlock()
}

// IncRotation records a log rotation.
func (c *Collector) IncRotation() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rotations++
	c.mu.Unlock()
}

// IncLockAcquired records a successful sidecar lock acquisition.
func (c *Collector) IncLockAcquired() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lockAcquired++
	c.mu.Unlock()
}

// IncLockTimeout records a lock acquisition that gave up.
func (c *Collector) IncLockTimeout() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lockTimeouts++
	c.mu.Unlock()
}

// IncLockConflict records an append conflict detected under the lock.
func (c *Collector) IncLockConflict() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lockConflicts++
	c.mu.Unlock()
}

// IncStaleBreak records a stale lock broken after its expiry window.
func (c *Collector) IncStaleBreak() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.staleBreaks++
	c.mu.Unlock()
}

// IncParityFailure records a parity verification mismatch.
func (c *Collector) IncParityFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.parityFailures++
	c.mu.Unlock()
}

// IncDecodeError records a line that failed container decoding.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all counters.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Appends:        c.appends,
		LintRejections: c.lintRejections,
		Amends:         c.amends,
		Rotations:      c.rotations,

		LockAcquired:  c.lockAcquired,
		LockTimeouts:  c.lockTimeouts,
		LockConflicts: c.lockConflicts,
		StaleBreaks:   c.staleBreaks,

		ParityFailures: c.parityFailures,
		DecodeErrors:   c.decodeErrors,

		LogPath: c.logPath,
		Writer:  c.writer,
	}
}
