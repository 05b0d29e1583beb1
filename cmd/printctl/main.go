/*
DESCRIPTION
  Printctl is the control daemon for an MSLA resin 3D printer: it
  drives a monochrome mask display and a motion controller in lockstep,
  sequencing masked-layer exposures read from a sliced archive.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Command printctl loads its configuration, wires the motion, display,
// archive and state-machine components together, and serves the HTTP
// façade until it receives a shutdown signal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/resinforge/printctl/internal/display"
	"github.com/resinforge/printctl/internal/httpapi"
	"github.com/resinforge/printctl/internal/motion"
	"github.com/resinforge/printctl/internal/printconfig"
	"github.com/resinforge/printctl/internal/printer"
	"github.com/resinforge/printctl/internal/shutdown"
	"github.com/resinforge/printctl/internal/status"
)

// Logging related constants, matching the teacher's cmd/ binaries.
const (
	logPath      = "/var/log/printctl/printctl.log"
	logMaxSizeMB = 100
	logMaxBackup = 10
	logMaxAgeDay = 28
	logSuppress  = true
)

func main() {
	configPath := flag.String("config", "/etc/printctl/config.yaml", "Path to the daemon's YAML configuration file")
	logLevel := flag.Int("loglevel", int(logging.Info), "Log verbosity (0=Debug .. 4=Fatal)")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAgeDay,
	}
	log := logging.New(int8(*logLevel), io.MultiWriter(fileLog, os.Stderr), logSuppress)

	cfg, err := printconfig.Load(*configPath)
	if err != nil {
		log.Fatal("could not load configuration", "path", *configPath, "error", err.Error())
	}

	coord := shutdown.New()
	defer coord.Close()
	ctx := coord.Context()

	statusPub := status.NewPublisher(log)

	protocolComms := motion.NewComms(log)
	protocol := motion.NewProtocol(log, protocolComms, templatesFrom(cfg))

	transport, err := motion.Open(log, cfg.Printer.Serial, cfg.Printer.Baudrate, protocolComms)
	if err != nil {
		log.Fatal("could not open motion transport", "serial", cfg.Printer.Serial, "error", err.Error())
	}

	sink := display.NewSink(log, cfg.Display.FrameBuffer, frameBufferSize(cfg))

	machine := printer.NewMachine(log, cfg, protocol, sink, statusPub.Broadcaster())

	server := httpapi.NewServer(log, machine, statusPub, cfg, coord)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.API.Port),
		Handler: server.Routes(),
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); transport.Run(ctx) }()
	go func() { defer wg.Done(); machine.Run(ctx) }()
	go func() {
		defer wg.Done()
		log.Info("http api listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http api server stopped unexpectedly", "error", err.Error())
		}
	}()

	<-coord.UntilShutdown()
	log.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http api server did not shut down cleanly", "error", err.Error())
	}

	if err := transport.Close(); err != nil {
		log.Error("failed closing motion transport", "error", err.Error())
	}
	if err := sink.Close(); err != nil {
		log.Error("failed closing frame buffer sink", "error", err.Error())
	}

	wg.Wait()
	log.Info("printctl stopped")
}

func templatesFrom(cfg *printconfig.Configuration) motion.Templates {
	return motion.Templates{
		Boot:          cfg.Gcode.Boot,
		Shutdown:      cfg.Gcode.Shutdown,
		Home:          cfg.Gcode.Home,
		Move:          cfg.Gcode.Move,
		ManualMove:    cfg.Gcode.ManualMove,
		PrintStart:    cfg.Gcode.PrintStart,
		PrintEnd:      cfg.Gcode.PrintEnd,
		LayerStart:    cfg.Gcode.LayerStart,
		CureStart:     cfg.Gcode.CureStart,
		CureEnd:       cfg.Gcode.CureEnd,
		StatusCheck:   cfg.Gcode.StatusCheck,
		StatusDesired: cfg.Gcode.StatusDesired,
		MoveSync:      cfg.Gcode.MoveSync,
		MoveTimeout:   time.Duration(cfg.Gcode.MoveTimeoutSec) * time.Second,
	}
}

// frameBufferSize computes the mapped region length: screen_width *
// screen_height * chunk_size / (8 * group_size), per spec.md §6.
func frameBufferSize(cfg *printconfig.Configuration) int {
	f := display.PixelFormat{
		Widths:   cfg.Display.BitWidths,
		LeftPad:  cfg.Display.LeftPad,
		RightPad: cfg.Display.RightPad,
	}
	pixels := cfg.Display.ScreenWidth * cfg.Display.ScreenHeight
	groups := pixels / f.GroupSize()
	return groups * (f.ChunkBits() / 8)
}
