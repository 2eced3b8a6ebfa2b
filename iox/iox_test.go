package iox

import (
	"errors"
	"testing"
)

// closeRecorder acts like a webhook response body whose Close always
// errors; the helpers must still call it and swallow the error.
type closeRecorder struct{ closed bool }

func (c *closeRecorder) Close() error {
	c.closed = true
	return errors.New("connection reset")
}

func TestDiscardClose(t *testing.T) {
	body := &closeRecorder{}
	DiscardClose(body)
	if !body.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	client := &closeRecorder{}
	cleanup := CloseFunc(client)
	if client.closed {
		t.Fatal("Close called before the cleanup func ran")
	}
	cleanup()
	if !client.closed {
		t.Fatal("Close was not called")
	}
}

func TestDiscardErr(t *testing.T) {
	synced := false
	DiscardErr(func() error {
		synced = true
		return errors.New("sync /dev/stderr: invalid argument")
	})
	if !synced {
		t.Fatal("fn was not called")
	}
}
