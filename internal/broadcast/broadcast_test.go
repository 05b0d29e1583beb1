package broadcast

import (
	"testing"
	"time"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New[int](4, nil)
	a := b.Subscribe()
	c := b.Subscribe()
	defer a.Close()
	defer c.Close()

	b.Publish(7)

	select {
	case v := <-a.C():
		if v != 7 {
			t.Fatalf("subscriber a got %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber a never received the published value")
	}
	select {
	case v := <-c.C():
		if v != 7 {
			t.Fatalf("subscriber c got %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber c never received the published value")
	}
}

func TestPublishDropsOldestWhenSubscriberLags(t *testing.T) {
	var dropped int
	b := New[int](2, func(subscriberID, n int) { dropped += n })
	sub := b.Subscribe()
	defer sub.Close()

	// Fill the buffer, then publish past capacity without ever reading.
	b.Publish(1)
	b.Publish(2)
	b.Publish(3)

	if dropped == 0 {
		t.Fatal("expected onDrop to be invoked when the subscriber's buffer filled up")
	}

	// The oldest value (1) should have been evicted; 2 and 3 remain.
	first := <-sub.C()
	if first != 2 {
		t.Fatalf("got %d, want 2 (oldest dropped)", first)
	}
}

func TestCloseRemovesSubscriber(t *testing.T) {
	b := New[int](4, nil)
	sub := b.Subscribe()
	if b.Len() != 1 {
		t.Fatalf("got %d subscribers, want 1", b.Len())
	}
	sub.Close()
	if b.Len() != 0 {
		t.Fatalf("got %d subscribers after close, want 0", b.Len())
	}
	if _, ok := <-sub.C(); ok {
		t.Fatal("expected subscriber channel to be closed")
	}
}
