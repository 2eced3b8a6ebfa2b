package coordlog

import (
	"context"
	"fmt"

	"github.com/hpcloud/tail"
)

// Follow streams lines appended to the log from now on, without the
// writer lock. The channel closes when the context is canceled or the
// tailer fails. Complete lines only: the underlying tailer delivers
// newline-terminated records, matching the single-write append guarantee.
func (m *Manager) Follow(ctx context.Context) (<-chan string, error) {
	t, err := tail.TailFile(m.Path(), tail.Config{
		Follow:    true,
		ReOpen:    true, // survive rotation of the underlying file
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: 2}, // end of file
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("log follow failed: %w", err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer func() { _ = t.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-t.Lines:
				if !ok {
					return
				}
				if line.Err != nil {
					continue
				}
				select {
				case out <- line.Text:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
