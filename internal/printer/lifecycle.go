/*
DESCRIPTION
  lifecycle.go implements the state machine's Shutdown and Idle
  loops and their operation handlers: boot, home, manual moves and
  print start. Pause/resume/cancel are handled in job.go.

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

import (
	"context"
	"fmt"
	"time"

	"github.com/resinforge/printctl/internal/archive"
	"github.com/resinforge/printctl/internal/display"
	"github.com/resinforge/printctl/internal/motion"
	"github.com/resinforge/printctl/internal/perr"
)

// bootPollInterval is how often the Shutdown state polls readiness.
const bootPollInterval = 10 * time.Second

// idleTick wakes the Idle command loop even with nothing queued.
const idleTick = time.Second

// Run is the machine's single logical task: it re-dispatches to the
// loop matching the current state's Kind until ctx is cancelled.
func (m *Machine) Run(ctx context.Context) {
	m.log.Info("print state machine starting")
	for ctx.Err() == nil {
		switch m.Kind() {
		case KindShutdown:
			m.runShutdown(ctx)
		case KindIdle:
			m.runIdle(ctx)
		case KindPrinting:
			m.runPrinting(ctx)
		}
	}
	m.log.Info("print state machine stopped")
}

func (m *Machine) runShutdown(ctx context.Context) {
	ticker := time.NewTicker(bootPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-m.ops:
			m.handleShutdownOp(op)
			if m.Kind() != KindShutdown {
				return
			}
		case <-ticker.C:
			ready, err := m.protocol.IsReady(ctx)
			if err != nil {
				m.log.Debug("motion controller readiness check failed", "error", err.Error())
				continue
			}
			if !ready {
				continue
			}
			ps, err := m.protocol.Boot()
			if err != nil {
				m.log.Error("boot sequence failed, will retry", "error", err.Error())
				continue
			}
			m.log.Info("motion controller booted")
			m.transitionIdle(ps)
			return
		}
	}
}

func (m *Machine) handleShutdownOp(op Operation) {
	switch op.Kind {
	case OpQueryState:
		m.publishSnapshot()
		op.ack(nil)
	default:
		m.log.Info("ignoring operation, printer is shut down", "kind", op.Kind)
		op.ack(perr.InternalStateErr(fmt.Errorf("printer is shut down")).WithStatus(409))
	}
}

func (m *Machine) runIdle(ctx context.Context) {
	ticker := time.NewTicker(idleTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-m.ops:
			m.handleIdleOp(ctx, op)
			if m.Kind() != KindIdle {
				return
			}
		case <-ticker.C:
		}
	}
}

func (m *Machine) handleIdleOp(ctx context.Context, op Operation) {
	switch op.Kind {
	case OpStartPrint:
		m.startPrint(op)

	case OpManualMove:
		zMM := float64(op.ZMicrons) / 1000.0
		if max := m.cfg.Printer.MaxZMM; max > 0 && zMM > max {
			op.ack(perr.ConfigurationErr(fmt.Errorf("manual move to %.3fmm exceeds configured max_z %.3fmm", zMM, max)).WithStatus(400))
			return
		}
		_, ok := m.wrapMotion(func() (motion.PhysicalState, error) {
			return m.protocol.MoveZ(ctx, zMM, m.cfg.Printer.DefaultUpSpeedMMPerSec, true)
		})
		op.ack(okErr(ok))

	case OpManualCure:
		fn := m.protocol.StopCuring
		if op.Curing {
			fn = m.protocol.StartCuring
		}
		_, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return fn() })
		op.ack(okErr(ok))

	case OpManualHome:
		_, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return m.protocol.Home() })
		op.ack(okErr(ok))

	case OpManualCommand:
		_, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return m.protocol.ManualCommand(op.Raw) })
		op.ack(okErr(ok))

	case OpManualDisplayTest:
		buf := display.GeneratePattern(op.Pattern, m.screenWidth, m.screenHeight, op.StripeWidth)
		encoded, err := display.Reencode(buf, 8, m.format)
		if err != nil {
			op.ack(err)
			return
		}
		op.ack(m.sink.WriteFrame(encoded))

	case OpManualDisplayLayer:
		m.manualDisplayLayer(op)

	case OpShutdown:
		m.doShutdown()
		op.ack(nil)

	case OpQueryState:
		m.publishSnapshot()
		op.ack(nil)

	default:
		m.log.Info("ignoring operation while idle", "kind", op.Kind)
		op.ack(perr.InternalStateErr(fmt.Errorf("operation not valid while idle")).WithStatus(409))
	}
}

func (m *Machine) manualDisplayLayer(op Operation) {
	pf, err := archive.Open(op.ArchivePath)
	if err != nil {
		op.ack(err)
		return
	}
	defer pf.Close()

	layer, ok := pf.Layer(op.LayerIndex)
	if !ok {
		op.ack(perr.PrintErr(fmt.Errorf("layer %d out of range for %s", op.LayerIndex, op.ArchivePath)).WithStatus(400))
		return
	}
	op.ack(m.writeFrame(layer))
}

func (m *Machine) writeFrame(layer archive.Layer) error {
	raw, _, _, err := display.DecodeMask(layer.PNGBytes)
	if err != nil {
		return err
	}
	encoded, err := display.Reencode(raw, 8, m.format)
	if err != nil {
		return err
	}
	return m.sink.WriteFrame(encoded)
}

// startPrint opens the archive, resolves per-archive overrides against
// configured defaults, fetches layer 0, and transitions to Printing.
func (m *Machine) startPrint(op Operation) {
	pf, err := archive.Open(op.ArchivePath)
	if err != nil {
		m.log.Error("failed to open print archive", "path", op.ArchivePath, "error", err.Error())
		op.ack(err)
		return
	}

	meta := pf.Metadata()
	layer0, ok := pf.Layer(0)
	if !ok {
		pf.Close()
		op.ack(perr.PrintErr(fmt.Errorf("archive %s has no layers", op.ArchivePath)).WithStatus(400))
		return
	}

	m.mu.Lock()
	m.job = &job{
		file:         pf,
		liftMM:       resolve(meta.LiftMM, m.cfg.Printer.DefaultLiftMM),
		upSpeed:      resolve(meta.UpSpeedMMPerSec, m.cfg.Printer.DefaultUpSpeedMMPerSec),
		downSpeed:    resolve(meta.DownSpeedMMPerSec, m.cfg.Printer.DefaultDownSpeedMMPerSec),
		waitBefore:   resolve(meta.WaitBeforeExposureSec, m.cfg.Printer.DefaultWaitBeforeExposure),
		waitAfter:    resolve(meta.WaitAfterExposureSec, m.cfg.Printer.DefaultWaitAfterExposure),
		currentLayer: layer0,
	}
	m.mu.Unlock()

	m.protocol.SetVariable("total_layers", fmt.Sprintf("%d", meta.LayerCount))

	ps, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return m.protocol.StartPrint() })
	if !ok {
		m.closeJob()
		op.ack(perr.HardwareErr(fmt.Errorf("motion controller unresponsive starting print")))
		return
	}

	m.setState(State{Kind: KindPrinting, Physical: ps, Metadata: meta, Paused: false, LayerIndex: 0})
	m.log.Info("print started", "archive", op.ArchivePath, "layers", meta.LayerCount)
	m.publishSnapshot()
	op.ack(nil)
}
