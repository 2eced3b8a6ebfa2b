package coordlog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLock_AcquireRelease(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coord.log")
	l := NewLock(logPath, time.Second, 0)

	if err := l.Acquire(t.Context()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !l.Held() {
		t.Error("Held = false after Acquire")
	}

	data, err := os.ReadFile(logPath + LockSuffix)
	if err != nil {
		t.Fatalf("lock sidecar missing: %v", err)
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("lock sidecar not JSON: %v", err)
	}
	if info.Owner != l.Owner() {
		t.Errorf("Owner = %q, want %q", info.Owner, l.Owner())
	}
	if info.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", info.PID, os.Getpid())
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(logPath + LockSuffix); !os.IsNotExist(err) {
		t.Error("lock sidecar not removed on release")
	}
}

func TestLock_ReleaseWhenNotHeld(t *testing.T) {
	l := NewLock(filepath.Join(t.TempDir(), "coord.log"), time.Second, 0)
	if err := l.Release(); err != nil {
		t.Fatalf("Release of unheld lock failed: %v", err)
	}
}

func TestLock_ContentionTimesOut(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coord.log")

	holder := NewLock(logPath, time.Second, time.Minute)
	if err := holder.Acquire(t.Context()); err != nil {
		t.Fatalf("holder acquire failed: %v", err)
	}
	defer func() { _ = holder.Release() }()

	blocked := NewLock(logPath, 300*time.Millisecond, time.Minute)
	err := blocked.Acquire(t.Context())
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("err = %v, want ErrLockTimeout", err)
	}

	var lte *LockTimeoutError
	if !errors.As(err, &lte) {
		t.Fatalf("err = %v, want LockTimeoutError", err)
	}
	if lte.Holder != holder.Owner() {
		t.Errorf("Holder = %q, want %q", lte.Holder, holder.Owner())
	}
}

// Two writers race: the second retries with backoff and succeeds once the
// first releases within the wait window.
func TestLock_SecondWriterWinsAfterRelease(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coord.log")

	first := NewLock(logPath, time.Second, time.Minute)
	if err := first.Acquire(t.Context()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	release := make(chan struct{})
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = first.Release()
		close(release)
	}()

	second := NewLock(logPath, 10*time.Second, time.Minute)
	if err := second.Acquire(t.Context()); err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	defer func() { _ = second.Release() }()

	<-release
	if !second.Held() {
		t.Error("second writer does not hold the lock")
	}
}

func TestLock_BreaksStaleLock(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coord.log")
	lockPath := logPath + LockSuffix

	// A lock left by a dead writer, 40s old against a 30s stale window.
	stale := LockInfo{
		Owner:      "dead-writer",
		PID:        999999,
		AcquiredAt: time.Now().UTC().Add(-40 * time.Second),
	}
	data, err := json.Marshal(stale)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lockPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	broke := false
	l := NewLock(logPath, 5*time.Second, 30*time.Second)
	l.onStaleBreak = func() { broke = true }

	if err := l.Acquire(t.Context()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer func() { _ = l.Release() }()

	if !broke {
		t.Error("stale lock was not broken")
	}

	var info LockInfo
	raw, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatal(err)
	}
	if info.Owner != l.Owner() {
		t.Errorf("Owner = %q, want new writer %q", info.Owner, l.Owner())
	}
}

func TestLock_FreshLockNotBroken(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coord.log")

	holder := NewLock(logPath, time.Second, 30*time.Second)
	if err := holder.Acquire(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = holder.Release() }()

	l := NewLock(logPath, 300*time.Millisecond, 30*time.Second)
	if err := l.Acquire(t.Context()); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("err = %v, want ErrLockTimeout (fresh lock must hold)", err)
	}
}

func TestLock_ContextCancellation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coord.log")

	holder := NewLock(logPath, time.Second, time.Minute)
	if err := holder.Acquire(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = holder.Release() }()

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	l := NewLock(logPath, 10*time.Second, time.Minute)
	err := l.Acquire(ctx)
	if err == nil {
		t.Fatal("expected error on canceled context")
	}
	if errors.Is(err, ErrLockTimeout) {
		t.Errorf("err = %v, want cancellation before timeout", err)
	}
}

func TestLock_DefaultsApplied(t *testing.T) {
	l := NewLock("coord.log", 0, 0)
	if l.timeout != DefaultLockTimeout {
		t.Errorf("timeout = %v, want %v", l.timeout, DefaultLockTimeout)
	}
	if l.staleAfter != DefaultStaleAfter {
		t.Errorf("staleAfter = %v, want %v", l.staleAfter, DefaultStaleAfter)
	}
}
