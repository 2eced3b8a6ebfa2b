package coordlog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/skippytm/shimmer/adapter"
	"github.com/skippytm/shimmer/container"
	"github.com/skippytm/shimmer/lint"
	"github.com/skippytm/shimmer/log"
	"github.com/skippytm/shimmer/metrics"
	"github.com/skippytm/shimmer/parity"
	"github.com/skippytm/shimmer/registry"
)

// Config configures a log manager.
type Config struct {
	// Path is the canonical log file (required).
	Path string
	// Registry is the base snapshot; header lines in the file override it.
	// Defaults to registry.Builtin().
	Registry *registry.Snapshot
	// LockTimeout bounds lock acquisition (default 10s).
	LockTimeout time.Duration
	// LockStaleAfter is the age past which an abandoned lock is broken
	// (default 30s).
	LockStaleAfter time.Duration
	// Logger receives structured append/rotate traces. Optional.
	Logger *log.Logger
	// Metrics accumulates per-log counters. Optional.
	Metrics *metrics.Collector
	// Adapters receive change notifications after successful writes.
	// Publish failures are logged, never fail the write. Optional.
	Adapters []adapter.Adapter
}

// Manager is the single-writer handle over one coordination log.
//
// The file is the shared mutable resource; cross-process writers are
// serialized by the sidecar Lock, in-process callers by mu. Every write
// path is acquire, append, release-on-all-paths. Readers (Tail, Follow,
// Scan) never touch the lock.
type Manager struct {
	mu sync.Mutex

	path     string
	base     *registry.Snapshot
	snap     *registry.Snapshot
	writer   string
	lock     *Lock
	size     int64
	seq      int64
	closed   bool
	logger   *log.Logger
	metrics  *metrics.Collector
	adapters []adapter.Adapter

	lockTimeout    time.Duration
	lockStaleAfter time.Duration
}

// Entry is one scanned log line.
type Entry struct {
	// Seq is the 1-based line number, which is also the line's id.
	Seq int64
	// Line is the raw text.
	Line string
	// Container is the decoded form, nil when Err is set.
	Container *container.Container
	// Err is the decode failure, if any. Scanning never stops on a bad
	// line; history is reported as found.
	Err error
}

// Open scans the existing log (if any), derives the active registry
// snapshot from its header lines, and returns a writer handle. The lock
// is not taken; it is acquired per write.
func Open(cfg Config) (*Manager, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("coordlog: path is required")
	}
	base := cfg.Registry
	if base == nil {
		base = registry.Builtin()
	}

	st, err := scanState(cfg.Path, base)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		path:           cfg.Path,
		base:           base,
		snap:           st.snap,
		size:           st.size,
		seq:            st.lines,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		adapters:       cfg.Adapters,
		lockTimeout:    cfg.LockTimeout,
		lockStaleAfter: cfg.LockStaleAfter,
	}
	m.lock = NewLock(cfg.Path, cfg.LockTimeout, cfg.LockStaleAfter)
	m.lock.onStaleBreak = m.metrics.IncStaleBreak
	m.writer = m.lock.Owner()
	return m, nil
}

// Path returns the canonical log path.
func (m *Manager) Path() string { return m.path }

// Writer returns the stable writer identity used in the lock sidecar.
func (m *Manager) Writer() string { return m.writer }

// Snapshot returns the active registry snapshot. The snapshot is
// immutable; a header append produces a new one.
func (m *Manager) Snapshot() *registry.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Append encodes the container under the active snapshot and appends it.
// Returns the new line's id.
func (m *Manager) Append(ctx context.Context, c *container.Container) (int64, error) {
	m.mu.Lock()
	snap := m.snap
	m.mu.Unlock()

	line, err := container.Encode(c, snap)
	if err != nil {
		return 0, err
	}
	return m.AppendLine(ctx, line)
}

// AppendLine appends one pre-rendered line. The pipeline is lint, then
// lock, then conflict check, then a single O_APPEND write of the
// newline-terminated record; a rejected line is never partially written.
func (m *Manager) AppendLine(ctx context.Context, line string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	c, err := m.checkLine(line)
	if err != nil {
		return 0, err
	}

	if err := m.acquire(ctx); err != nil {
		return 0, err
	}
	defer m.release()

	if err := m.syncUnderLock(); err != nil {
		return 0, err
	}

	id, err := m.writeLine(line)
	if err != nil {
		return 0, err
	}

	if c.Header {
		snap, err := m.snap.Apply(c.HeaderFields())
		if err != nil {
			// The line is already durable; surface the bad override but
			// keep the prior snapshot.
			return id, fmt.Errorf("header applied to log but not to snapshot: %w", err)
		}
		m.snap = snap
	}

	m.metrics.IncAppend()
	m.info("line appended", map[string]any{"id": id, "bytes": len(line) + 1})
	m.publish(ctx, m.lineEvent(adapter.EventLineAppended, line, c))
	return id, nil
}

// Amend appends the sanctioned correction pair under one lock hold: an
// error-action notice referencing oldID, then the corrected line under a
// fresh id. Returns the corrected line's id. Prior lines are untouched;
// direct mutation of history is a protocol violation this manager never
// performs.
func (m *Manager) Amend(ctx context.Context, oldID int64, reasonCode int, corrected *container.Container) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	notice := container.New(corrected.Routing, container.ActionError).
		WithToken(registry.KindBatchTag, "ctag", fmt.Sprintf(".amend:%d", oldID)).
		WithToken(registry.KindFacet, "β", fmt.Sprintf("%02d", reasonCode)).
		WithVector(corrected.Vector)

	noticeLine, err := container.Encode(notice, m.snap)
	if err != nil {
		return 0, fmt.Errorf("amend notice: %w", err)
	}
	correctedLine, err := container.Encode(corrected, m.snap)
	if err != nil {
		return 0, fmt.Errorf("amend correction: %w", err)
	}

	if _, err := m.checkLine(noticeLine); err != nil {
		return 0, fmt.Errorf("amend notice: %w", err)
	}
	if _, err := m.checkLine(correctedLine); err != nil {
		return 0, fmt.Errorf("amend correction: %w", err)
	}

	if err := m.acquire(ctx); err != nil {
		return 0, err
	}
	defer m.release()

	if err := m.syncUnderLock(); err != nil {
		return 0, err
	}

	if _, err := m.writeLine(noticeLine); err != nil {
		return 0, err
	}
	id, err := m.writeLine(correctedLine)
	if err != nil {
		return 0, err
	}

	m.metrics.IncAmend()
	m.info("line amended", map[string]any{"old_id": oldID, "new_id": id, "reason": reasonCode})
	m.publish(ctx, m.lineEvent(adapter.EventLineAmended, correctedLine, corrected))
	return id, nil
}

// Rotate closes the current segment with a final line, then starts a new
// file at newPath with a fresh header. Rotation is explicit, never
// automatic. Returns the closed segment's path for archival. The manager
// continues on newPath.
func (m *Manager) Rotate(ctx context.Context, newPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	if newPath == "" || newPath == m.path {
		return "", fmt.Errorf("rotate requires a distinct new path")
	}

	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	defer m.release()

	if err := m.syncUnderLock(); err != nil {
		return "", err
	}

	if _, err := m.writeLine(ClosingLine); err != nil {
		return "", fmt.Errorf("rotate close: %w", err)
	}

	header := FreshHeader(m.snap)
	f, err := os.OpenFile(newPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("rotate open new segment: %w", err)
	}
	n, err := f.WriteString(header + "\n")
	if serr := f.Sync(); err == nil {
		err = serr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("rotate write header: %w", err)
	}

	closed := m.path
	m.path = newPath
	m.size = int64(n)
	m.seq = 1
	m.lock = NewLock(newPath, m.lockTimeout, m.lockStaleAfter)
	m.lock.owner = m.writer
	m.lock.onStaleBreak = m.metrics.IncStaleBreak

	m.metrics.IncRotation()
	m.info("log rotated", map[string]any{"closed": closed, "new": newPath})
	m.publish(ctx, &adapter.Event{
		EventType: adapter.EventLogRotated,
		LogPath:   closed,
		Writer:    m.writer,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RotatedTo: newPath,
	})
	return closed, nil
}

// Tail returns the last n raw lines. Readers never take the lock; they
// observe a prefix of the eventually consistent sequence.
func (m *Manager) Tail(n int) ([]string, error) {
	lines, err := readLines(m.Path())
	if err != nil {
		return nil, err
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Scan decodes every line under the snapshot active at that point in the
// file, folding header lines as it goes. Bad lines are reported in place,
// never dropped and never fatal.
func (m *Manager) Scan() ([]Entry, error) {
	lines, err := readLines(m.Path())
	if err != nil {
		return nil, err
	}

	snap := m.base
	entries := make([]Entry, 0, len(lines))
	for i, line := range lines {
		e := Entry{Seq: int64(i + 1), Line: line}
		c, err := container.Decode(line, snap)
		if err != nil {
			e.Err = err
			m.metrics.IncDecodeError()
		} else {
			e.Container = c
			if c.Header {
				if next, err := snap.Apply(c.HeaderFields()); err == nil {
					snap = next
				}
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close releases the handle and persists the metrics sidecar. The log
// itself needs no closing; every append opens and closes the file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if m.metrics != nil {
		snap := m.metrics.Snapshot()
		if prior, err := metrics.ReadSidecar(m.path); err == nil {
			snap = metrics.Merge(snap, prior)
		}
		if err := metrics.WriteSidecar(m.path, snap); err != nil {
			return err
		}
	}
	return nil
}

// checkLine decodes and lints a candidate line. Header lines decode but
// are never floor-gated.
func (m *Manager) checkLine(line string) (*container.Container, error) {
	if strings.Contains(line, "\n") {
		return nil, fmt.Errorf("line contains embedded newline")
	}
	c, err := container.Decode(line, m.snap)
	if err != nil {
		return nil, err
	}
	if _, err := lint.Check(line, lint.FromSnapshot(m.snap)); err != nil {
		m.metrics.IncLintRejection()
		return nil, err
	}
	return c, nil
}

// acquire takes the sidecar lock, recording contention outcomes.
func (m *Manager) acquire(ctx context.Context) error {
	if err := m.lock.Acquire(ctx); err != nil {
		m.metrics.IncLockTimeout()
		m.warn("lock acquisition failed", map[string]any{"error": err.Error()})
		return err
	}
	m.metrics.IncLockAcquired()
	return nil
}

func (m *Manager) release() {
	if err := m.lock.Release(); err != nil {
		m.warn("lock release failed", map[string]any{"error": err.Error()})
	}
}

// syncUnderLock reconciles with writes made by other processes since our
// last look. A shorter file means history was mutated: that is the
// AppendConflict this layer must reject, because append-only is the one
// guarantee every reader relies on.
func (m *Manager) syncUnderLock() error {
	info, err := os.Stat(m.path)
	if os.IsNotExist(err) {
		if m.size > 0 {
			m.metrics.IncLockConflict()
			return &AppendConflictError{Path: m.path, Remembered: m.size, Actual: 0}
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("log stat failed: %w", err)
	}

	actual := info.Size()
	switch {
	case actual < m.size:
		m.metrics.IncLockConflict()
		return &AppendConflictError{Path: m.path, Remembered: m.size, Actual: actual}
	case actual > m.size:
		// Legal concurrent appends: rescan to pick up line count and any
		// header updates before we write.
		st, err := scanState(m.path, m.snap)
		if err != nil {
			return err
		}
		m.size = st.size
		m.seq = st.lines
		m.snap = st.snap
	}
	return nil
}

// writeLine performs the single atomic append of one record and returns
// the new line's id.
func (m *Manager) writeLine(line string) (int64, error) {
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("log open failed: %w", err)
	}
	n, err := f.WriteString(line + "\n")
	if serr := f.Sync(); err == nil {
		err = serr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("log append failed: %w", err)
	}

	m.size += int64(n)
	m.seq++
	return m.seq, nil
}

// lineEvent builds the notification payload for a written line.
func (m *Manager) lineEvent(eventType, line string, c *container.Container) *adapter.Event {
	ev := &adapter.Event{
		EventType: eventType,
		LogPath:   m.path,
		Writer:    m.writer,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Line:      line,
	}
	if c != nil && !c.Header {
		ev.Routing = c.Routing
		ev.Action = c.Action.String()
		ev.VectorParity = parity.Vector(c.Vector)
		ev.LintScore = lint.Score(line, lint.FromSnapshot(m.snap)).Score
	}
	return ev
}

// publish fans the event out to every adapter. Failures are logged and
// never fail the write that triggered them.
func (m *Manager) publish(ctx context.Context, ev *adapter.Event) {
	for _, a := range m.adapters {
		if err := a.Publish(ctx, ev); err != nil {
			m.warn("adapter publish failed", map[string]any{
				"event": ev.EventType, "error": err.Error(),
			})
		}
	}
}

func (m *Manager) info(msg string, fields map[string]any) {
	if m.logger != nil {
		m.logger.Info(msg, fields)
	}
}

func (m *Manager) warn(msg string, fields map[string]any) {
	if m.logger != nil {
		m.logger.Warn(msg, fields)
	}
}

// readLines loads the whole file as a line slice. Missing file = empty log.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("log read failed: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
