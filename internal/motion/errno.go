/*
DESCRIPTION
  errno.go classifies serial I/O errors that should be retried
  rather than treated as a hardware fault.

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

import "errors"

// interruptedErr reports that a serial port write was interrupted by a
// signal and should simply be retried. Most implementations of
// term.Term surface this as a plain syscall.EINTR-wrapping error; the
// interface below avoids a hard dependency on a specific error type.
type interruptedErr interface {
	Temporary() bool
}

func isInterrupted(err error) bool {
	var te interruptedErr
	if errors.As(err, &te) {
		return te.Temporary()
	}
	return false
}
