/*
DESCRIPTION
  state.go defines the state machine's State snapshot and its
  Kind enumeration.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package printer implements the print state machine (C6): the single
// dispatcher that owns the active Printer state, the sliced-archive
// handle for any running job, and the motion-protocol client.
package printer

import (
	"github.com/resinforge/printctl/internal/archive"
	"github.com/resinforge/printctl/internal/motion"
)

// Kind names which shape of State is populated.
type Kind int

const (
	KindShutdown Kind = iota
	KindIdle
	KindPrinting
)

func (k Kind) String() string {
	switch k {
	case KindShutdown:
		return "shutdown"
	case KindIdle:
		return "idle"
	case KindPrinting:
		return "printing"
	default:
		return "unknown"
	}
}

// State is the full published snapshot of the printer. Only the fields
// relevant to Kind are meaningful: Idle populates Physical only,
// Printing populates Metadata/Paused/LayerIndex/Physical, Shutdown
// populates nothing beyond Kind.
type State struct {
	Kind       Kind
	Physical   motion.PhysicalState
	Metadata   archive.Metadata
	Paused     bool
	LayerIndex int
}
