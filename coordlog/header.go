package coordlog

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/skippytm/shimmer/container"
	"github.com/skippytm/shimmer/registry"
)

// logState is what a scan of the existing file yields: the registry
// snapshot derived from all header lines (latest wins, all retained),
// the byte size, and the line count.
type logState struct {
	snap  *registry.Snapshot
	size  int64
	lines int64
}

// scanState reads the log and folds every header line into the base
// snapshot in file order. A missing file is a fresh log: base snapshot,
// zero size. Content lines are counted but not decoded here; readers
// that need decoded lines use Scan.
func scanState(path string, base *registry.Snapshot) (logState, error) {
	st := logState{snap: base}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("log open failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return st, fmt.Errorf("log stat failed: %w", err)
	}
	st.size = info.Size()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		st.lines++
		if !strings.HasPrefix(line, registry.HeaderMarker) {
			continue
		}
		snap, err := applyHeader(st.snap, line)
		if err != nil {
			return st, fmt.Errorf("header line %d: %w", st.lines, err)
		}
		st.snap = snap
	}
	if err := scanner.Err(); err != nil {
		return st, fmt.Errorf("log scan failed: %w", err)
	}
	return st, nil
}

// applyHeader decodes one header line and folds it into the snapshot.
func applyHeader(snap *registry.Snapshot, line string) (*registry.Snapshot, error) {
	c, err := container.Decode(line, snap)
	if err != nil {
		return nil, err
	}
	return snap.Apply(c.HeaderFields())
}

// FreshHeader renders the header line a new log segment starts with.
func FreshHeader(snap *registry.Snapshot) string {
	var b strings.Builder
	b.WriteString(registry.HeaderMarker)
	b.WriteString(registry.HeaderKeyVersion)
	b.WriteString(snap.Version)
	b.WriteString(registry.HeaderKeyLintFloor)
	fmt.Fprintf(&b, "%d", snap.LintFloor)
	return b.String()
}

// ClosingLine is the final line of a rotated segment: the canonical flag
// dropped, marking the file as no longer authoritative.
const ClosingLine = "‡!0"
