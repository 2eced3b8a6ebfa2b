package coordlog

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
)

// LockSuffix is appended to the log path to form the lock sidecar path.
const LockSuffix = ".lock"

// DefaultLockTimeout bounds how long Acquire retries before failing.
// Lock hold times are short (one append), so contention clears quickly.
const DefaultLockTimeout = 10 * time.Second

// DefaultStaleAfter is the age past which a lock left by a dead writer
// may be broken.
const DefaultStaleAfter = 30 * time.Second

// Backoff bounds for acquisition retries.
const (
	lockBackoffStart = 25 * time.Millisecond
	lockBackoffCap   = 500 * time.Millisecond
)

// LockInfo is the JSON body of the lock sidecar, identifying the holder.
type LockInfo struct {
	Owner      string    `json:"owner"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is an exclusive writer lock implemented as a sidecar file created
// with O_CREATE|O_EXCL. It coordinates independent processes, so it is an
// external primitive rather than a language-level mutex. Writers only;
// readers tail the log without touching the lock.
type Lock struct {
	path       string
	owner      string
	timeout    time.Duration
	staleAfter time.Duration
	held       bool

	// onStaleBreak, when set, is called each time a stale lock is broken.
	onStaleBreak func()
}

// NewLock creates a lock for the given log path. The owner token is a
// fresh uuid, stable for the life of the Lock.
func NewLock(logPath string, timeout, staleAfter time.Duration) *Lock {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Lock{
		path:       logPath + LockSuffix,
		owner:      uuid.NewString(),
		timeout:    timeout,
		staleAfter: staleAfter,
	}
}

// Owner returns the lock's owner token.
func (l *Lock) Owner() string { return l.owner }

// Path returns the lock sidecar path.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock, retrying with jittered exponential backoff on
// contention. Mutual exclusion, not a queue: blocked writers retry rather
// than waiting in FIFO order. Fails with *LockTimeoutError after the
// configured timeout, or early on context cancellation.
func (l *Lock) Acquire(ctx context.Context) error {
	if l.held {
		return fmt.Errorf("lock %s already held by this writer", l.path)
	}

	deadline := time.Now().Add(l.timeout)
	backoff := lockBackoffStart
	var lastHolder string

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("lock acquire canceled: %w", err)
		}

		ok, holder, err := l.tryAcquire()
		if err != nil {
			return err
		}
		if ok {
			l.held = true
			return nil
		}
		lastHolder = holder

		if time.Now().After(deadline) {
			return &LockTimeoutError{Path: l.path, Holder: lastHolder, Waited: l.timeout}
		}

		// Jitter spreads out writers that blocked on the same release.
		sleep := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock acquire canceled: %w", ctx.Err())
		case <-time.After(sleep):
		}
		if backoff < lockBackoffCap {
			backoff *= 2
			if backoff > lockBackoffCap {
				backoff = lockBackoffCap
			}
		}
	}
}

// tryAcquire makes one attempt. Returns (false, holder, nil) on contention.
func (l *Lock) tryAcquire() (bool, string, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		holder, stale := l.inspect()
		if stale {
			// Dead writer: break the lock and let the next loop take it.
			_ = os.Remove(l.path)
			if l.onStaleBreak != nil {
				l.onStaleBreak()
			}
		}
		return false, holder, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("lock create failed: %w", err)
	}

	info := LockInfo{Owner: l.owner, PID: os.Getpid(), AcquiredAt: time.Now().UTC()}
	data, err := json.Marshal(info)
	if err == nil {
		_, err = f.Write(data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(l.path)
		return false, "", fmt.Errorf("lock write failed: %w", err)
	}
	return true, "", nil
}

// inspect reads the current holder and reports whether the lock is stale.
// An unreadable or corrupt lock file is treated as stale once old enough,
// judged by file mtime.
func (l *Lock) inspect() (holder string, stale bool) {
	data, err := os.ReadFile(l.path)
	if err == nil {
		var info LockInfo
		if json.Unmarshal(data, &info) == nil {
			return info.Owner, time.Since(info.AcquiredAt) > l.staleAfter
		}
	}
	st, err := os.Stat(l.path)
	if err != nil {
		return "", false
	}
	return "", time.Since(st.ModTime()) > l.staleAfter
}

// Release drops the lock. Safe to call when not held.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("lock release failed: %w", err)
	}
	return nil
}

// Held reports whether this writer currently holds the lock.
func (l *Lock) Held() bool { return l.held }
