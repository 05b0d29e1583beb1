/*
DESCRIPTION
  goo.go stubs the .goo print archive format, reporting it as
  unsupported until a reader is written.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package goo is a placeholder archive.PrintFile implementation for the
// .goo slicer format. It is registered so that archive.Open recognises
// the extension and reports a clear, typed error rather than an
// "unrecognised extension" one; no .goo parsing is implemented.
package goo

import (
	"fmt"

	"github.com/resinforge/printctl/internal/archive"
	"github.com/resinforge/printctl/internal/perr"
)

func init() {
	archive.Register(".goo", Open)
}

// Open always fails: .goo support is not implemented.
func Open(path string) (archive.PrintFile, error) {
	return nil, perr.PrintErr(fmt.Errorf("%s: .goo archives are not supported", path)).WithStatus(400)
}
