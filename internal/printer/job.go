/*
DESCRIPTION
  job.go runs the per-layer hot loop that drives a print from
  the first layer to the last.

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

	"github.com/resinforge/printctl/internal/motion"
	"github.com/resinforge/printctl/internal/perr"
)

// pausePollInterval is how often a paused print re-checks for resume.
const pausePollInterval = 100 * time.Millisecond

func (m *Machine) runPrinting(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if !m.drainPrintingOps(ctx) {
			return
		}
		if m.Kind() != KindPrinting {
			return
		}
		if m.isPaused() {
			sleepCtx(ctx, pausePollInterval)
			continue
		}
		if !m.stepLayer(ctx) {
			return
		}
	}
}

// drainPrintingOps acts on every currently-queued operation without
// blocking, so a late PausePrint is observed before the next motion
// command. Returns false if a drained operation moved the machine out
// of Printing.
func (m *Machine) drainPrintingOps(ctx context.Context) bool {
	for {
		select {
		case op := <-m.ops:
			m.handlePrintingOp(op)
			if m.Kind() != KindPrinting {
				return false
			}
		default:
			return true
		}
	}
}

func (m *Machine) handlePrintingOp(op Operation) {
	switch op.Kind {
	case OpPausePrint:
		m.setPaused(true)
		m.publishSnapshot()
		op.ack(nil)

	case OpResumePrint:
		m.setPaused(false)
		m.publishSnapshot()
		op.ack(nil)

	case OpStopPrint:
		ps := m.physical()
		m.closeJob()
		m.transitionIdle(ps)
		op.ack(nil)

	case OpShutdown:
		m.doShutdown()
		op.ack(nil)

	case OpQueryState:
		m.publishSnapshot()
		op.ack(nil)

	case OpStartPrint:
		m.log.Info("ignoring start-print, a print is already running")
		op.ack(nil)

	default:
		m.log.Info("ignoring operation while printing", "kind", op.Kind)
		op.ack(perr.PrintErr(fmt.Errorf("operation not valid while printing")).WithStatus(409))
	}
}

// stepLayer runs one iteration of the per-layer hot loop for the
// current layer index: template + move to the layer, expose, and
// prefetch the following layer so its archive read overlaps the cure
// (its PNG decode happens later, in writeFrame). Returns false
// if the machine left Printing (end of print, or a hardware fault).
func (m *Machine) stepLayer(ctx context.Context) bool {
	m.mu.Lock()
	j := m.job
	i := m.state.LayerIndex
	layerHeight := m.state.Metadata.LayerHeightMM
	m.mu.Unlock()
	if j == nil {
		return false
	}

	m.protocol.SetVariable("layer", fmt.Sprintf("%d", i))
	fetchCh := m.prefetchLayer(j, i+1)

	if _, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return m.protocol.StartLayer() }); !ok {
		return false
	}

	liftedZ := float64(i+1)*layerHeight + j.liftMM
	if _, ok := m.wrapMotion(func() (motion.PhysicalState, error) {
		return m.protocol.MoveZ(ctx, liftedZ, j.upSpeed, false)
	}); !ok {
		return false
	}

	settledZ := float64(i+1) * layerHeight
	if _, ok := m.wrapMotion(func() (motion.PhysicalState, error) {
		return m.protocol.MoveZ(ctx, settledZ, j.downSpeed, false)
	}); !ok {
		return false
	}

	sleepCtx(ctx, secondsToDuration(j.waitBefore))

	if err := m.writeFrame(j.currentLayer); err != nil {
		m.log.Error("failed to write frame buffer", "layer", i, "error", err.Error())
	}

	if _, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return m.protocol.StartCuring() }); !ok {
		return false
	}
	sleepCtx(ctx, secondsToDuration(j.currentLayer.ExposureTimeSec))
	if _, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return m.protocol.StopCuring() }); !ok {
		return false
	}

	sleepCtx(ctx, secondsToDuration(j.waitAfter))

	var next fetchResult
	select {
	case next = <-fetchCh:
	case <-ctx.Done():
		return false
	}

	if !next.ok {
		m.log.Info("print complete", "layers", i+1)
		ps, ok := m.wrapMotion(func() (motion.PhysicalState, error) { return m.protocol.EndPrint() })
		m.closeJob()
		if ok {
			m.transitionIdle(ps)
		}
		return false
	}

	m.mu.Lock()
	m.job.currentLayer = next.layer
	m.state.LayerIndex = i + 1
	m.state.Physical = m.protocol.State()
	m.mu.Unlock()
	m.publishSnapshot()
	return true
}

func (m *Machine) prefetchLayer(j *job, index int) <-chan fetchResult {
	ch := make(chan fetchResult, 1)
	go func() {
		layer, ok := j.file.Layer(index)
		ch <- fetchResult{layer: layer, ok: ok}
	}()
	return ch
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
