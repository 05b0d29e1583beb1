/*
DESCRIPTION
  print.go implements the /print and /manual routes.

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
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/resinforge/printctl/internal/display"
	"github.com/resinforge/printctl/internal/perr"
	"github.com/resinforge/printctl/internal/printer"
)

// handleOp submits a zero-argument operation and returns 204 on
// success, or the operation's error status on failure.
func (s *Server) handleOp(kind printer.OpKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.machine.Submit(r.Context(), printer.Operation{Kind: kind}); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type startPrintRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleStartPrint(w http.ResponseWriter, r *http.Request) {
	var req startPrintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, perr.ConfigurationErr(err).WithStatus(400))
		return
	}
	path := filepath.Join(s.config().API.UploadPath, filepath.Base(req.Path))
	err := s.machine.Submit(r.Context(), printer.Operation{Kind: printer.OpStartPrint, ArchivePath: path})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type manualMoveRequest struct {
	ZMicrons uint32 `json:"z_microns"`
}

func (s *Server) handleManualMove(w http.ResponseWriter, r *http.Request) {
	var req manualMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, perr.ConfigurationErr(err).WithStatus(400))
		return
	}
	err := s.machine.Submit(r.Context(), printer.Operation{Kind: printer.OpManualMove, ZMicrons: req.ZMicrons})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type manualCureRequest struct {
	Curing bool `json:"curing"`
}

func (s *Server) handleManualCure(w http.ResponseWriter, r *http.Request) {
	var req manualCureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, perr.ConfigurationErr(err).WithStatus(400))
		return
	}
	err := s.machine.Submit(r.Context(), printer.Operation{Kind: printer.OpManualCure, Curing: req.Curing})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type manualCommandRequest struct {
	Raw string `json:"raw"`
}

func (s *Server) handleManualCommand(w http.ResponseWriter, r *http.Request) {
	var req manualCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, perr.ConfigurationErr(err).WithStatus(400))
		return
	}
	err := s.machine.Submit(r.Context(), printer.Operation{Kind: printer.OpManualCommand, Raw: req.Raw})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type manualDisplayTestRequest struct {
	Pattern     string `json:"pattern"`
	StripeWidth int    `json:"stripe_width"`
}

func parsePattern(name string) (display.TestPattern, error) {
	switch name {
	case "white":
		return display.PatternWhite, nil
	case "black":
		return display.PatternBlack, nil
	case "stripe":
		return display.PatternStripe, nil
	case "sweep":
		return display.PatternSweep, nil
	default:
		return 0, perr.ConfigurationErr(fmt.Errorf("unknown test pattern %q", name)).WithStatus(400)
	}
}

func (s *Server) handleManualDisplayTest(w http.ResponseWriter, r *http.Request) {
	var req manualDisplayTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, perr.ConfigurationErr(err).WithStatus(400))
		return
	}
	pattern, err := parsePattern(req.Pattern)
	if err != nil {
		writeError(w, err)
		return
	}
	op := printer.Operation{Kind: printer.OpManualDisplayTest, Pattern: pattern, StripeWidth: req.StripeWidth}
	if err := s.machine.Submit(r.Context(), op); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type manualDisplayLayerRequest struct {
	Path       string `json:"path"`
	LayerIndex int    `json:"layer_index"`
}

func (s *Server) handleManualDisplayLayer(w http.ResponseWriter, r *http.Request) {
	var req manualDisplayLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, perr.ConfigurationErr(err).WithStatus(400))
		return
	}
	path := filepath.Join(s.config().API.UploadPath, filepath.Base(req.Path))
	op := printer.Operation{Kind: printer.OpManualDisplayLayer, ArchivePath: path, LayerIndex: req.LayerIndex}
	if err := s.machine.Submit(r.Context(), op); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
