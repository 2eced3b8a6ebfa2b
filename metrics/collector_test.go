package metrics

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("coord.log", "writer-001")

	c.IncAppend()
	c.IncAppend()
	c.IncLintRejection()
	c.IncAmend()
	c.IncRotation()
	c.IncLockAcquired()
	c.IncLockAcquired()
	c.IncLockAcquired()
	c.IncLockTimeout()
	c.IncLockConflict()
	c.IncStaleBreak()
	c.IncParityFailure()
	c.IncParityFailure()
	c.IncDecodeError()

	s := c.Snapshot()

	if s.Appends != 2 {
		t.Errorf("Appends = %d, want 2", s.Appends)
	}
	if s.LintRejections != 1 {
		t.Errorf("LintRejections = %d, want 1", s.LintRejections)
	}
	if s.Amends != 1 {
		t.Errorf("Amends = %d, want 1", s.Amends)
	}
	if s.Rotations != 1 {
		t.Errorf("Rotations = %d, want 1", s.Rotations)
	}
	if s.LockAcquired != 3 {
		t.Errorf("LockAcquired = %d, want 3", s.LockAcquired)
	}
	if s.LockTimeouts != 1 {
		t.Errorf("LockTimeouts = %d, want 1", s.LockTimeouts)
	}
	if s.LockConflicts != 1 {
		t.Errorf("LockConflicts = %d, want 1", s.LockConflicts)
	}
	if s.StaleBreaks != 1 {
		t.Errorf("StaleBreaks = %d, want 1", s.StaleBreaks)
	}
	if s.ParityFailures != 2 {
		t.Errorf("ParityFailures = %d, want 2", s.ParityFailures)
	}
	if s.DecodeErrors != 1 {
		t.Errorf("DecodeErrors = %d, want 1", s.DecodeErrors)
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("team.log", "writer-42")
	s := c.Snapshot()

	if s.LogPath != "team.log" {
		t.Errorf("LogPath = %q, want %q", s.LogPath, "team.log")
	}
	if s.Writer != "writer-42" {
		t.Errorf("Writer = %q, want %q", s.Writer, "writer-42")
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// Must not panic.
	c.IncAppend()
	c.IncLintRejection()
	c.IncAmend()
	c.IncRotation()
	c.IncLockAcquired()
	c.IncLockTimeout()
	c.IncLockConflict()
	c.IncStaleBreak()
	c.IncParityFailure()
	c.IncDecodeError()

	s := c.Snapshot()
	if s.Appends != 0 {
		t.Errorf("nil collector snapshot Appends = %d, want 0", s.Appends)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("coord.log", "writer-001")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.IncAppend()
				c.IncLockAcquired()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.Appends != 1000 {
		t.Errorf("Appends = %d, want 1000", s.Appends)
	}
	if s.LockAcquired != 1000 {
		t.Errorf("LockAcquired = %d, want 1000", s.LockAcquired)
	}
}

func TestCollector_SnapshotIsolation(t *testing.T) {
	c := NewCollector("coord.log", "writer-001")
	c.IncAppend()

	s1 := c.Snapshot()
	c.IncAppend()
	s2 := c.Snapshot()

	if s1.Appends != 1 {
		t.Errorf("first snapshot Appends = %d, want 1", s1.Appends)
	}
	if s2.Appends != 2 {
		t.Errorf("second snapshot Appends = %d, want 2", s2.Appends)
	}
}

func TestSidecar_RoundTrip(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coord.log")

	c := NewCollector(logPath, "writer-001")
	c.IncAppend()
	c.IncAppend()
	c.IncLintRejection()
	c.IncRotation()

	if err := WriteSidecar(logPath, c.Snapshot()); err != nil {
		t.Fatalf("WriteSidecar failed: %v", err)
	}

	back, err := ReadSidecar(logPath)
	if err != nil {
		t.Fatalf("ReadSidecar failed: %v", err)
	}
	if back.Appends != 2 || back.LintRejections != 1 || back.Rotations != 1 {
		t.Errorf("sidecar round trip = %+v", back)
	}
	if back.LogPath != logPath {
		t.Errorf("LogPath = %q, want %q", back.LogPath, logPath)
	}
}

func TestSidecar_MissingReturnsZero(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "never-written.log")

	snap, err := ReadSidecar(logPath)
	if err != nil {
		t.Fatalf("ReadSidecar failed: %v", err)
	}
	if snap != (Snapshot{}) {
		t.Errorf("missing sidecar = %+v, want zero", snap)
	}
}

func TestMerge(t *testing.T) {
	current := Snapshot{Appends: 3, Rotations: 1, LogPath: "a.log", Writer: "w1"}
	prior := Snapshot{Appends: 10, LintRejections: 2, LogPath: "a.log", Writer: "w0"}

	got := Merge(current, prior)
	if got.Appends != 13 {
		t.Errorf("Appends = %d, want 13", got.Appends)
	}
	if got.LintRejections != 2 {
		t.Errorf("LintRejections = %d, want 2", got.LintRejections)
	}
	if got.Rotations != 1 {
		t.Errorf("Rotations = %d, want 1", got.Rotations)
	}
	if got.Writer != "w1" {
		t.Errorf("Writer = %q, want current dimension", got.Writer)
	}
}
