/*
DESCRIPTION
  comms.go implements the serial line reader/writer loops that
  carry gcode-style commands to and from the motion controller.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package motion implements the motion-controller serial transport
// (C4) and the templated command protocol (C5) built on top of it.
package motion

import (
	"context"

	"github.com/resinforge/printctl/internal/broadcast"
	"github.com/resinforge/printctl/internal/perr"
)

// CommsDepth is the bounded ring-broadcast depth for both the outgoing
// and incoming lines of a Comms pair.
const CommsDepth = 200

// Logger is the structured logger every component takes, matching
// github.com/ausocean/utils/logging.Logger's call shape.
type Logger interface {
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// Comms is a paired sender/receiver over an outgoing and an incoming
// line stream. It is cloneable (fresh subscription, same underlying
// broadcasters) and invertible: Invert swaps outgoing and incoming so
// that the protocol side and the transport side can talk to each other
// symmetrically over the same two broadcasters.
type Comms struct {
	log      Logger
	outgoing *broadcast.Broadcaster[string]
	incoming *broadcast.Broadcaster[string]
	outSub   *broadcast.Subscription[string]
	inSub    *broadcast.Subscription[string]
}

// NewComms creates a fresh pair of outgoing/incoming broadcasters and
// returns the protocol-side handle.
func NewComms(log Logger) *Comms {
	dropped := func(dir string) func(int, int) {
		return func(subscriberID, n int) {
			log.Error("internal comms channel fell behind, messages dropped", "direction", dir, "subscriber", subscriberID, "dropped", n)
		}
	}
	out := broadcast.New[string](CommsDepth, dropped("outgoing"))
	in := broadcast.New[string](CommsDepth, dropped("incoming"))
	return &Comms{
		log:      log,
		outgoing: out,
		incoming: in,
		outSub:   out.Subscribe(),
		inSub:    in.Subscribe(),
	}
}

// Clone returns a new handle over the same underlying broadcasters with
// a fresh subscription position.
func (c *Comms) Clone() *Comms {
	return &Comms{
		log:      c.log,
		outgoing: c.outgoing,
		incoming: c.incoming,
		outSub:   c.outgoing.Subscribe(),
		inSub:    c.incoming.Subscribe(),
	}
}

// Invert swaps outgoing and incoming, returning the handle the other
// side of the conversation should use.
func (c *Comms) Invert() *Comms {
	return &Comms{
		log:      c.log,
		outgoing: c.incoming,
		incoming: c.outgoing,
		outSub:   c.incoming.Subscribe(),
		inSub:    c.outgoing.Subscribe(),
	}
}

// Send publishes message on the outgoing stream. Fire-and-forget.
func (c *Comms) Send(message string) {
	c.outgoing.Publish(message)
}

// Receive blocks until the next incoming line arrives or ctx is done.
func (c *Comms) Receive(ctx context.Context) (string, error) {
	select {
	case line := <-c.inSub.C():
		return line, nil
	case <-ctx.Done():
		return "", perr.HardwareErr(ctx.Err())
	}
}

// TryReceive returns the next incoming line without blocking, and
// ok=false if none is pending.
func (c *Comms) TryReceive() (line string, ok bool) {
	select {
	case line, open := <-c.inSub.C():
		return line, open
	default:
		return "", false
	}
}

// FlushIncoming discards any currently buffered incoming lines, so a
// subsequent Receive can't be confused by a stale response.
func (c *Comms) FlushIncoming() {
	for {
		if _, ok := c.TryReceive(); !ok {
			return
		}
	}
}
