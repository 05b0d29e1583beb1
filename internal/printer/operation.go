/*
DESCRIPTION
  operation.go defines the Operation type submitted to the
  machine's queue and its acknowledgement helper.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

package printer

import "github.com/resinforge/printctl/internal/display"

// OpKind names one of the accepted command-alphabet members.
type OpKind int

const (
	OpStartPrint OpKind = iota
	OpStopPrint
	OpPausePrint
	OpResumePrint
	OpManualMove
	OpManualCure
	OpManualHome
	OpManualCommand
	OpManualDisplayTest
	OpManualDisplayLayer
	OpQueryState
	OpShutdown
)

// Operation is the command alphabet accepted by the state machine's
// bounded operation queue. Only the fields relevant to Kind are read.
type Operation struct {
	Kind OpKind

	// StartPrint, ManualDisplayLayer.
	ArchivePath string

	// ManualDisplayLayer.
	LayerIndex int

	// ManualMove.
	ZMicrons uint32

	// ManualCure.
	Curing bool

	// ManualCommand: a raw, unsubstituted string sent straight to the wire.
	Raw string

	// ManualDisplayTest.
	Pattern      display.TestPattern
	StripeWidth  int

	// Done, if non-nil, is closed (after being assigned an error, which
	// may be nil) once the operation has been acted on. Callers that
	// don't need an acknowledgement may leave this nil.
	Done chan error
}

// ack reports err on op's Done channel, if the caller asked for one.
func (op Operation) ack(err error) {
	if op.Done == nil {
		return
	}
	op.Done <- err
	close(op.Done)
}
