/*
DESCRIPTION
  server.go builds the HTTP façade's routed mux and holds the
  shared server state.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package httpapi is the non-core HTTP façade consumed by a GUI
// client: it owns one sender into the print state machine's operation
// queue and one subscriber handle on the status broadcast, translating
// requests to printer.Operation values and returning a snapshot or
// stream of PrinterState.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/resinforge/printctl/internal/perr"
	"github.com/resinforge/printctl/internal/printconfig"
	"github.com/resinforge/printctl/internal/printer"
	"github.com/resinforge/printctl/internal/shutdown"
	"github.com/resinforge/printctl/internal/status"
)

// Logger matches github.com/ausocean/utils/logging.Logger's call shape.
type Logger interface {
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// Version is the daemon build version, set by the linker in release
// builds (-ldflags "-X .../httpapi.Version=...").
var Version = "dev"

// Server wires the print state machine, the status publisher, and the
// configuration into a stdlib net/http handler tree.
type Server struct {
	log       Logger
	machine   *printer.Machine
	statusPub *status.Publisher
	coord     *shutdown.Coordinator

	cfgMu sync.RWMutex
	cfg   *printconfig.Configuration
}

// NewServer constructs a Server. Its Routes method returns the
// *http.ServeMux to pass to http.Server.
func NewServer(log Logger, machine *printer.Machine, statusPub *status.Publisher, cfg *printconfig.Configuration, coord *shutdown.Coordinator) *Server {
	return &Server{log: log, machine: machine, statusPub: statusPub, cfg: cfg, coord: coord}
}

// config returns the current configuration snapshot.
func (s *Server) config() *printconfig.Configuration {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Server) setConfig(cfg *printconfig.Configuration) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// Routes builds the method+path routed mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /print/start", s.handleStartPrint)
	mux.HandleFunc("POST /print/pause", s.handleOp(printer.OpPausePrint))
	mux.HandleFunc("POST /print/resume", s.handleOp(printer.OpResumePrint))
	mux.HandleFunc("POST /print/cancel", s.handleOp(printer.OpStopPrint))

	mux.HandleFunc("POST /manual/move", s.handleManualMove)
	mux.HandleFunc("POST /manual/cure", s.handleManualCure)
	mux.HandleFunc("POST /manual/home", s.handleOp(printer.OpManualHome))
	mux.HandleFunc("POST /manual/command", s.handleManualCommand)
	mux.HandleFunc("POST /manual/display-test", s.handleManualDisplayTest)
	mux.HandleFunc("POST /manual/display-layer", s.handleManualDisplayLayer)

	mux.HandleFunc("GET /config", s.handleConfigGet)
	mux.HandleFunc("PATCH /config", s.handleConfigPatch)

	mux.HandleFunc("GET /files", s.handleFilesList)
	mux.HandleFunc("GET /files/usb", s.handleFilesUSB)
	mux.HandleFunc("GET /files/{name}", s.handleFileGet)
	mux.HandleFunc("POST /files/{name}", s.handleFileUpload)
	mux.HandleFunc("DELETE /files/{name}", s.handleFileDelete)
	mux.HandleFunc("GET /thumbnail/{name}", s.handleThumbnail)

	mux.HandleFunc("GET /status", s.handleStatusSnapshot)
	mux.HandleFunc("GET /status/stream", s.handleStatusStream)

	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)

	return mux
}

// writeError maps a perr.Error's status hint (defaulting to 500) onto
// the HTTP response.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if e, ok := err.(*perr.Error); ok {
		status = e.Status
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing left to do but note it.
	}
}
