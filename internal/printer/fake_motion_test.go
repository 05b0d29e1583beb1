package printer

import (
	"context"
	"sync"

	"github.com/resinforge/printctl/internal/motion"
)

// fakeMotion is a motionClient double that mirrors the behaviour of the
// original implementation's MockSerialHandler: it keeps a mirrored
// PhysicalState and never talks to a real wire, so the state machine
// can be driven without a serial port.
type fakeMotion struct {
	mu    sync.Mutex
	state motion.PhysicalState
	vars  map[string]string

	bootCount  int
	shutdowns  int
	ready      bool
	failNextOp error // if set, the next motion call returns this and is cleared.
}

func newFakeMotion() *fakeMotion {
	return &fakeMotion{ready: true, vars: map[string]string{}}
}

func (f *fakeMotion) consumeFailure() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.failNextOp
	f.failNextOp = nil
	return err
}

func (f *fakeMotion) IsReady(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready, nil
}

func (f *fakeMotion) Boot() (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	f.mu.Lock()
	f.bootCount++
	s := f.state
	f.mu.Unlock()
	return s, nil
}

func (f *fakeMotion) Shutdown() error {
	f.mu.Lock()
	f.shutdowns++
	f.mu.Unlock()
	return nil
}

func (f *fakeMotion) Home() (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	return f.setZ(0), nil
}

func (f *fakeMotion) ManualCommand(raw string) (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeMotion) StartPrint() (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeMotion) EndPrint() (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeMotion) StartLayer() (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeMotion) MoveZ(ctx context.Context, zMM, speedMMPerSec float64, manual bool) (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	return f.setZ(uint32(zMM * 1000)), nil
}

func (f *fakeMotion) setZ(microns uint32) motion.PhysicalState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.ZMicrons = microns
	f.state.ZMillimeters = float64(microns) / 1000.0
	return f.state
}

func (f *fakeMotion) StartCuring() (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	f.mu.Lock()
	f.state.Curing = true
	s := f.state
	f.mu.Unlock()
	return s, nil
}

func (f *fakeMotion) StopCuring() (motion.PhysicalState, error) {
	if err := f.consumeFailure(); err != nil {
		return motion.PhysicalState{}, err
	}
	f.mu.Lock()
	f.state.Curing = false
	s := f.state
	f.mu.Unlock()
	return s, nil
}

func (f *fakeMotion) State() motion.PhysicalState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeMotion) SetVariable(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vars[name] = value
}

func (f *fakeMotion) ClearVariables() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vars = map[string]string{}
}
