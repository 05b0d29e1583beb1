package shutdown

import (
	"testing"
	"time"
)

func TestShutdownCancelsContext(t *testing.T) {
	c := New()
	defer c.Close()

	select {
	case <-c.UntilShutdown():
		t.Fatal("context cancelled before Shutdown was called")
	default:
	}

	c.Shutdown()

	select {
	case <-c.UntilShutdown():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after Shutdown")
	}
	if c.Context().Err() == nil {
		t.Fatal("expected Context().Err() to be non-nil after Shutdown")
	}
}

func TestCloseIsIdempotentWithShutdown(t *testing.T) {
	c := New()
	c.Shutdown()
	c.Close() // must not panic even though the context is already cancelled.
}
