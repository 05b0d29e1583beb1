/*
DESCRIPTION
  config.go implements the /config GET and PATCH routes.

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
	"encoding/json"
	"net/http"

	"github.com/resinforge/printctl/internal/perr"
	"github.com/resinforge/printctl/internal/printconfig"
)

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.config())
}

// configPatchRequest mirrors printconfig.Configuration's YAML-tagged
// sections; only sections present in the request body are applied.
type configPatchRequest struct {
	Printer *printconfig.PrinterSection `json:"printer,omitempty"`
	Gcode   *printconfig.GcodeSection   `json:"gcode,omitempty"`
	Display *printconfig.DisplaySection `json:"display,omitempty"`
	API     *printconfig.APISection    `json:"api,omitempty"`
}

func (s *Server) handleConfigPatch(w http.ResponseWriter, r *http.Request) {
	var req configPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, perr.ConfigurationErr(err).WithStatus(400))
		return
	}

	patched, err := s.config().Patch(func(c *printconfig.Configuration) {
		if req.Printer != nil {
			c.Printer = *req.Printer
		}
		if req.Gcode != nil {
			c.Gcode = *req.Gcode
		}
		if req.Display != nil {
			c.Display = *req.Display
		}
		if req.API != nil {
			c.API = *req.API
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.setConfig(patched)
	writeJSON(w, patched)
}
