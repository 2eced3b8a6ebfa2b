package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// SidecarSuffix is appended to the log path to form the metrics sidecar path.
const SidecarSuffix = ".metrics"

// SidecarPath returns the metrics sidecar path for a coordination log.
func SidecarPath(logPath string) string {
	return logPath + SidecarSuffix
}

// WriteSidecar persists a snapshot next to the log as msgpack.
// The write is tmp-then-rename so a crashed writer never leaves a
// half-written sidecar behind.
func WriteSidecar(logPath string, snap Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("metrics encode failed: %w", err)
	}

	path := SidecarPath(logPath)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".metrics-*")
	if err != nil {
		return fmt.Errorf("metrics sidecar temp failed: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("metrics sidecar write failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("metrics sidecar close failed: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("metrics sidecar rename failed: %w", err)
	}
	return nil
}

// ReadSidecar loads a previously persisted snapshot. A missing sidecar
// returns a zero snapshot, not an error: a fresh log has no history.
func ReadSidecar(logPath string) (Snapshot, error) {
	data, err := os.ReadFile(SidecarPath(logPath))
	if os.IsNotExist(err) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("metrics sidecar read failed: %w", err)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("metrics decode failed: %w", err)
	}
	return snap, nil
}

// Merge adds the counters of prior history into the snapshot, keeping
// the snapshot's own dimensions. Used when a process reopens a log and
// wants cumulative numbers.
func Merge(current, prior Snapshot) Snapshot {
	current.Appends += prior.Appends
	current.LintRejections += prior.LintRejections
	current.Amends += prior.Amends
	current.Rotations += prior.Rotations
	current.LockAcquired += prior.LockAcquired
	current.LockTimeouts += prior.LockTimeouts
	current.LockConflicts += prior.LockConflicts
	current.StaleBreaks += prior.StaleBreaks
	current.ParityFailures += prior.ParityFailures
	current.DecodeErrors += prior.DecodeErrors
	return current
}
