/*
DESCRIPTION
  machine.go is the print state machine's operation queue and
  its wrapped-hardware-call dispatch.

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
	"sync"

	"github.com/resinforge/printctl/internal/archive"
	"github.com/resinforge/printctl/internal/broadcast"
	"github.com/resinforge/printctl/internal/display"
	"github.com/resinforge/printctl/internal/motion"
	"github.com/resinforge/printctl/internal/perr"
	"github.com/resinforge/printctl/internal/printconfig"
)

// Logger is the structured logger every component takes, matching
// github.com/ausocean/utils/logging.Logger's call shape.
type Logger interface {
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// opQueueCapacity is the bounded FIFO depth for submitted operations.
const opQueueCapacity = 100

// motionClient is the subset of *motion.Protocol the state machine
// drives. Expressed as an interface, matching the teacher's
// device.AVDevice convention, so tests can swap in a fake motion
// controller without a serial port (grounded on
// original_source/tests/common/mock_serial_handler.rs).
type motionClient interface {
	IsReady(ctx context.Context) (bool, error)
	Boot() (motion.PhysicalState, error)
	Shutdown() error
	Home() (motion.PhysicalState, error)
	ManualCommand(raw string) (motion.PhysicalState, error)
	StartPrint() (motion.PhysicalState, error)
	EndPrint() (motion.PhysicalState, error)
	StartLayer() (motion.PhysicalState, error)
	MoveZ(ctx context.Context, zMM, speedMMPerSec float64, manual bool) (motion.PhysicalState, error)
	StartCuring() (motion.PhysicalState, error)
	StopCuring() (motion.PhysicalState, error)
	State() motion.PhysicalState
	SetVariable(name, value string)
	ClearVariables()
}

// job is the state the machine keeps while a print is active.
type job struct {
	file archive.PrintFile

	liftMM     float64
	upSpeed    float64
	downSpeed  float64
	waitBefore float64
	waitAfter  float64

	currentLayer archive.Layer
}

type fetchResult struct {
	layer archive.Layer
	ok    bool
}

// Machine is the single dispatcher (C6): it owns the current Printer
// state, the archive handle for any running job, and the motion
// protocol client. Operations are submitted through a bounded channel
// and acted on by the one goroutine running Run.
type Machine struct {
	log      Logger
	cfg      *printconfig.Configuration
	protocol motionClient
	sink     *display.Sink
	status   *broadcast.Broadcaster[State]

	format       display.PixelFormat
	screenWidth  int
	screenHeight int

	ops chan Operation

	mu    sync.Mutex
	state State
	job   *job
}

// NewMachine constructs a Machine in the Shutdown state, matching the
// daemon's boot sequence: the motion controller's readiness is polled
// before anything is considered Idle.
func NewMachine(log Logger, cfg *printconfig.Configuration, protocol motionClient, sink *display.Sink, status *broadcast.Broadcaster[State]) *Machine {
	return &Machine{
		log:      log,
		cfg:      cfg,
		protocol: protocol,
		sink:     sink,
		status:   status,
		format: display.PixelFormat{
			Widths:   cfg.Display.BitWidths,
			LeftPad:  cfg.Display.LeftPad,
			RightPad: cfg.Display.RightPad,
		},
		screenWidth:  cfg.Display.ScreenWidth,
		screenHeight: cfg.Display.ScreenHeight,
		ops:          make(chan Operation, opQueueCapacity),
		state:        State{Kind: KindShutdown},
	}
}

// Submit enqueues op and waits for it to be acted on. Returns an error
// if the queue is full, if the operation itself failed, or if ctx is
// cancelled first.
func (m *Machine) Submit(ctx context.Context, op Operation) error {
	if op.Done == nil {
		op.Done = make(chan error, 1)
	}
	select {
	case m.ops <- op:
	default:
		return perr.InternalStateErr(fmt.Errorf("operation queue is full")).WithStatus(503)
	}
	select {
	case err := <-op.Done:
		return err
	case <-ctx.Done():
		return perr.InternalStateErr(ctx.Err())
	}
}

// SubmitAsync enqueues op without waiting for it to be acted on. Used
// where the caller cannot block on acknowledgement, e.g. an HTTP
// shutdown handler racing its own response write. Silently dropped if
// the queue is full.
func (m *Machine) SubmitAsync(op Operation) {
	select {
	case m.ops <- op:
	default:
		m.log.Error("operation queue full, dropping async operation", "kind", op.Kind)
	}
}

// Snapshot returns the current published state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Kind returns the current state's Kind.
func (m *Machine) Kind() Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Kind
}

func (m *Machine) physical() motion.PhysicalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Physical
}

func (m *Machine) isPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Paused
}

func (m *Machine) setPaused(p bool) {
	m.mu.Lock()
	m.state.Paused = p
	m.mu.Unlock()
}

func (m *Machine) setPhysical(ps motion.PhysicalState) {
	m.mu.Lock()
	m.state.Physical = ps
	m.mu.Unlock()
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Machine) publishSnapshot() {
	m.status.Publish(m.Snapshot())
}

func (m *Machine) transitionIdle(ps motion.PhysicalState) {
	m.setState(State{Kind: KindIdle, Physical: ps})
	m.publishSnapshot()
}

// closeJob releases the active archive handle, if any, and clears any
// caller-set template variables the job left behind.
func (m *Machine) closeJob() {
	m.mu.Lock()
	j := m.job
	m.job = nil
	m.mu.Unlock()

	if j != nil {
		if err := j.file.Close(); err != nil {
			m.log.Error("failed to close print archive", "error", err.Error())
		}
	}
	m.protocol.ClearVariables()
}

// doShutdown runs the shutdown template best-effort, closes any active
// job, and transitions to Shutdown. Valid from any state.
func (m *Machine) doShutdown() {
	m.closeJob()
	if err := m.protocol.Shutdown(); err != nil {
		m.log.Error("shutdown template failed", "error", err.Error())
	}
	m.setState(State{Kind: KindShutdown})
	m.publishSnapshot()
}

// wrapMotion runs a motion-protocol call, updates the mirrored physical
// state on success, and transitions to Shutdown on a HardwareError —
// the wrapped-helper pattern every hardware call goes through.
func (m *Machine) wrapMotion(fn func() (motion.PhysicalState, error)) (motion.PhysicalState, bool) {
	ps, err := fn()
	if err != nil {
		if kind, ok := perr.KindOf(err); ok && kind == perr.Hardware {
			m.log.Error("motion command failed, shutting down", "error", err.Error())
			m.doShutdown()
			return motion.PhysicalState{}, false
		}
		m.log.Error("motion command failed", "error", err.Error())
		return motion.PhysicalState{}, false
	}
	m.setPhysical(ps)
	return ps, true
}

func okErr(ok bool) error {
	if ok {
		return nil
	}
	return perr.HardwareErr(fmt.Errorf("motion command failed"))
}

func resolve(override *float64, def float64) float64 {
	if override != nil {
		return *override
	}
	return def
}
