/*
DESCRIPTION
  version.go implements the /version and /shutdown routes.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

package httpapi

import (
	"net/http"

	"github.com/resinforge/printctl/internal/printer"
)

type versionResponse struct {
	Version string `json:"version"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, versionResponse{Version: Version})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	// The state machine's own Shutdown operation runs the shutdown
	// template and settles into the Shutdown state; the coordinator
	// then tears down every other long-lived task. Enqueued without
	// waiting for an acknowledgement, since the response itself may
	// race the machine settling.
	s.machine.SubmitAsync(printer.Operation{Kind: printer.OpShutdown})
	w.WriteHeader(http.StatusAccepted)
	s.coord.Shutdown()
}
