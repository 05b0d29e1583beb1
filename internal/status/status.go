/*
DESCRIPTION
  status.go publishes State snapshots from the print state
  machine to any number of subscribers.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package status implements the broadcast status publisher (C8): a
// single-writer, many-reader channel carrying the full printer.State on
// every transition. It shares its ring-broadcast implementation with
// the motion transport's internal comms (internal/broadcast).
package status

import (
	"github.com/resinforge/printctl/internal/broadcast"
	"github.com/resinforge/printctl/internal/printer"
)

// depth bounds how many snapshots a slow subscriber may lag behind
// before the oldest is dropped. The newest snapshot is always kept in
// the buffer, but a receive returns the oldest one still buffered, not
// the latest.
const depth = 32

// Logger matches github.com/ausocean/utils/logging.Logger's call shape.
type Logger interface {
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// Publisher is the single writer into the status broadcast. The print
// state machine holds one and calls Publish after every state mutation
// it makes.
type Publisher struct {
	b *broadcast.Broadcaster[printer.State]
}

// NewPublisher constructs a Publisher. Pass Broadcaster() to
// printer.NewMachine so the machine becomes this Publisher's writer.
func NewPublisher(log Logger) *Publisher {
	return &Publisher{
		b: broadcast.New[printer.State](depth, func(subscriberID, dropped int) {
			log.Warning("status subscriber fell behind, snapshots dropped", "subscriber", subscriberID, "dropped", dropped)
		}),
	}
}

// Broadcaster exposes the underlying broadcaster for printer.NewMachine
// to publish into.
func (p *Publisher) Broadcaster() *broadcast.Broadcaster[printer.State] {
	return p.b
}

// Subscription is a live handle on the status stream, e.g. for an SSE
// connection in internal/httpapi.
type Subscription = broadcast.Subscription[printer.State]

// Subscribe registers a new subscriber.
func (p *Publisher) Subscribe() *Subscription {
	return p.b.Subscribe()
}
