/*
DESCRIPTION
  transport.go opens and configures the serial port underlying
  the motion protocol.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

package motion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/term"

	"github.com/resinforge/printctl/internal/perr"
)

// Transport is the full-duplex, line-oriented serial channel to the
// motion controller. It runs a reader loop and a writer loop as
// background goroutines and exits both within one tick of the shared
// context being cancelled.
type Transport struct {
	log    Logger
	port   *term.Term
	comms  *Comms // device-side handle: Send publishes lines read from the wire, Receive yields lines queued for the wire.
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// Open opens devicename at baud (8-N-1) and returns a Transport whose
// Protocol handle (via Comms) talks to it. protocolComms is the handle
// the motion.Protocol client uses; the transport is given its inverted
// twin so reads/writes line up symmetrically (see Comms.Invert).
func Open(log Logger, devicename string, baud int, protocolComms *Comms) (*Transport, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, perr.HardwareErr(fmt.Errorf("opening serial port %s: %w", devicename, err))
	}
	if baud > 0 {
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, perr.HardwareErr(fmt.Errorf("setting baud rate %d on %s: %w", baud, devicename, err))
		}
	}

	return &Transport{
		log:   log,
		port:  t,
		comms: protocolComms.Invert(),
	}, nil
}

// Run starts the reader and writer loops and blocks until ctx is
// cancelled and both loops have exited.
func (t *Transport) Run(ctx context.Context) {
	t.wg.Add(2)
	go t.readLoop(ctx)
	go t.writeLoop(ctx)
	t.wg.Wait()
}

// Close releases the underlying serial port. Call after Run returns.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.port.Close()
}

func (t *Transport) readLoop(ctx context.Context) {
	defer t.wg.Done()
	reader := bufio.NewReader(t.port)
	for {
		select {
		case <-ctx.Done():
			t.log.Info("motion transport reader loop stopping")
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Read timeout with nothing available: keep polling.
				continue
			}
			t.log.Error("motion transport read failed, stopping", "error", err.Error())
			return
		}
		if line == "" {
			continue
		}
		t.comms.Send(line)
	}
}

func (t *Transport) writeLoop(ctx context.Context) {
	defer t.wg.Done()
	for {
		msg, err := t.comms.Receive(ctx)
		if err != nil {
			t.log.Info("motion transport writer loop stopping")
			return
		}
		if err := t.writeRetrying(ctx, msg+"\r\n"); err != nil {
			t.log.Error("motion transport write failed, stopping", "error", err.Error())
			return
		}
	}
}

// writeRetrying retries interrupted writes until success, a
// non-retriable error, or cancellation.
func (t *Transport) writeRetrying(ctx context.Context, msg string) error {
	data := []byte(msg)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := t.port.Write(data)
		if err == nil && n == len(data) {
			return nil
		}
		if err != nil && isInterrupted(err) {
			continue
		}
		if err == nil {
			return perr.HardwareErr(fmt.Errorf("short write: wrote %d of %d bytes", n, len(data)))
		}
		return perr.HardwareErr(fmt.Errorf("writing to serial port: %w", err))
	}
}
