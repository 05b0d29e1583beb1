/*
DESCRIPTION
  broadcast.go implements a bounded, multi-subscriber fan-out
  channel used by the motion transport and the status publisher.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package broadcast implements a bounded, multi-subscriber fan-out
// channel: every subscriber gets every value, and a subscriber that
// falls behind by more than the configured depth drops its oldest
// buffered values rather than stalling the publisher.
package broadcast

import "sync"

// Broadcaster publishes values of type T to any number of subscribers.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	depth  int
	subs   map[int]chan T
	nextID int
	dropFn func(subscriberID int, dropped int)
}

// New returns a Broadcaster whose subscriber channels are buffered to
// depth. onDrop, if non-nil, is called whenever a subscriber's buffer
// was full and an older value had to be discarded to make room.
func New[T any](depth int, onDrop func(subscriberID, dropped int)) *Broadcaster[T] {
	return &Broadcaster[T]{
		depth:  depth,
		subs:   make(map[int]chan T),
		dropFn: onDrop,
	}
}

// Subscription is a live subscriber handle returned by Subscribe.
type Subscription[T any] struct {
	id int
	ch chan T
	b  *Broadcaster[T]
}

// C returns the channel to receive published values from.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Close removes this subscription from the broadcaster.
func (s *Subscription[T]) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(s.b.subs, s.id)
	close(s.ch)
}

// Subscribe registers a new subscriber and returns its handle.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan T, b.depth)
	b.subs[id] = ch
	return &Subscription[T]{id: id, ch: ch, b: b}
}

// Publish sends value to every current subscriber. A subscriber whose
// buffer is full has its oldest pending value dropped to make room,
// so Publish never blocks on a slow reader.
func (b *Broadcaster[T]) Publish(value T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- value:
		default:
			// Buffer full: drop the oldest value, then retry once.
			select {
			case <-ch:
				if b.dropFn != nil {
					b.dropFn(id, 1)
				}
			default:
			}
			select {
			case ch <- value:
			default:
				// Still full (concurrent reader raced us); give up on
				// this publish for this subscriber rather than block.
			}
		}
	}
}

// Len reports the current number of live subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
