/*
DESCRIPTION
  protocol.go implements the gcode-template request/response
  protocol spoken over the serial transport.

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

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/resinforge/printctl/internal/perr"
)

// PhysicalState is an immutable snapshot of the platform pose. The
// microns form is authoritative; the millimetre form is derived for
// human/operator surfaces.
type PhysicalState struct {
	ZMicrons     uint32
	ZMillimeters float64
	Curing       bool
}

// Templates holds the named command templates the motion firmware's
// dialect is expressed in. The pattern (variable substitution,
// send/await) is fixed by this spec; the strings themselves are
// configuration.
type Templates struct {
	Boot           string
	Shutdown       string
	Home           string
	Move           string
	ManualMove     string // optional; falls back to Move when empty.
	PrintStart     string
	PrintEnd       string
	LayerStart     string
	CureStart      string
	CureEnd        string
	StatusCheck    string
	StatusDesired  string
	MoveSync       string // substring expected after a completed move.
	MoveTimeout    time.Duration
}

var substitutionRe = regexp.MustCompile(`\{(\w*)\}`)

// Protocol drives the templated command dialogue over a Comms handle,
// and maintains the mirrored PhysicalState: every move updates
// z_microns/z_mm, every cure command flips curing. This mirror is
// returned by every successful motion operation; the state machine
// trusts it because no other writer modifies it.
type Protocol struct {
	log       Logger
	comms     *Comms
	templates Templates

	mu    sync.Mutex
	state PhysicalState
	vars  map[string]string
}

// NewProtocol constructs a Protocol client. comms should be a fresh
// handle (e.g. from NewComms); the caller is responsible for handing
// its Invert() to the Transport that owns the physical wire.
func NewProtocol(log Logger, comms *Comms, templates Templates) *Protocol {
	return &Protocol{
		log:       log,
		comms:     comms,
		templates: templates,
		vars:      map[string]string{},
	}
}

// State returns the current mirrored physical state.
func (p *Protocol) State() PhysicalState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetVariable sets a caller-populated substitution variable such as
// {layer}, {total_layers} or {speed}. The reserved identifiers z,
// curing, layer, total_layers and speed are otherwise managed here.
func (p *Protocol) SetVariable(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vars[name] = value
}

// ClearVariables removes all caller-set substitution variables.
func (p *Protocol) ClearVariables() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vars = map[string]string{}
}

// substitute replaces every {name} token in tmpl against the current
// variable map, plus the always-available reserved identifiers. An
// unknown token is a fatal Configuration error.
func (p *Protocol) substitute(tmpl string) (string, error) {
	p.mu.Lock()
	vars := make(map[string]string, len(p.vars)+3)
	for k, v := range p.vars {
		vars[k] = v
	}
	vars["z"] = strconv.FormatFloat(p.state.ZMillimeters, 'f', -1, 64)
	vars["curing"] = strconv.FormatBool(p.state.Curing)
	p.mu.Unlock()

	var missing string
	result := substitutionRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := substitutionRe.FindStringSubmatch(match)[1]
		v, ok := vars[name]
		if !ok {
			missing = name
			return match
		}
		return v
	})
	if missing != "" {
		return "", perr.ConfigurationErr(fmt.Errorf("template %q uses undefined substitution {%s}", tmpl, missing))
	}
	return result, nil
}

// Send substitutes cmd's template variables and enqueues it,
// fire-and-forget.
func (p *Protocol) Send(cmd string) error {
	line, err := p.substitute(cmd)
	if err != nil {
		return err
	}
	p.comms.Send(line)
	return nil
}

// SendAndCheck flushes pending incoming lines, sends cmd, and reports
// whether the next incoming line contains expect.
func (p *Protocol) SendAndCheck(ctx context.Context, cmd, expect string) (bool, error) {
	line, err := p.substitute(cmd)
	if err != nil {
		return false, err
	}
	p.comms.FlushIncoming()
	p.comms.Send(line)
	reply, err := p.comms.Receive(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(reply, expect), nil
}

// SendAndAwait flushes pending incoming lines, sends cmd, and polls
// incoming lines every 100ms until one contains expect or timeout
// elapses, in which case it fails with a Hardware error.
func (p *Protocol) SendAndAwait(ctx context.Context, cmd, expect string, timeout time.Duration) error {
	line, err := p.substitute(cmd)
	if err != nil {
		return err
	}
	p.comms.FlushIncoming()
	p.comms.Send(line)

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if reply, ok := p.comms.TryReceive(); ok && strings.Contains(reply, expect) {
			return nil
		}
		if time.Now().After(deadline) {
			return perr.HardwareErr(fmt.Errorf("timed out after %s waiting for %q", timeout, expect))
		}
		select {
		case <-ctx.Done():
			return perr.HardwareErr(ctx.Err())
		case <-ticker.C:
		}
	}
}

func (p *Protocol) setPosition(microns uint32) PhysicalState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.ZMicrons = microns
	p.state.ZMillimeters = float64(microns) / 1000.0
	return p.state
}

func (p *Protocol) setCuring(curing bool) PhysicalState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Curing = curing
	return p.state
}

// IsReady executes the status-check/status-desired dialogue.
func (p *Protocol) IsReady(ctx context.Context) (bool, error) {
	return p.SendAndCheck(ctx, p.templates.StatusCheck, p.templates.StatusDesired)
}

// Boot executes the boot template.
func (p *Protocol) Boot() (PhysicalState, error) {
	if err := p.Send(p.templates.Boot); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}

// Shutdown executes the shutdown template, best-effort.
func (p *Protocol) Shutdown() error {
	return p.Send(p.templates.Shutdown)
}

// Home executes the home template.
func (p *Protocol) Home() (PhysicalState, error) {
	if err := p.Send(p.templates.Home); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}

// ManualCommand forwards a raw, already-complete command string
// (no substitution) straight to the wire.
func (p *Protocol) ManualCommand(raw string) (PhysicalState, error) {
	p.comms.Send(raw)
	return p.State(), nil
}

// StartPrint executes the print-start template.
func (p *Protocol) StartPrint() (PhysicalState, error) {
	if err := p.Send(p.templates.PrintStart); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}

// EndPrint executes the print-end template.
func (p *Protocol) EndPrint() (PhysicalState, error) {
	if err := p.Send(p.templates.PrintEnd); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}

// StartLayer executes the layer-start template with {layer} already set
// by the caller via SetVariable.
func (p *Protocol) StartLayer() (PhysicalState, error) {
	if err := p.Send(p.templates.LayerStart); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}

// MoveZ moves to zMM at speedMMPerSec (converted to mm/min for the
// {speed} substitution), updating the mirrored Z first so that {z}
// reflects the target position in the outgoing command, then awaiting
// move-sync.
func (p *Protocol) MoveZ(ctx context.Context, zMM, speedMMPerSec float64, manual bool) (PhysicalState, error) {
	cmd := p.templates.Move
	if manual && p.templates.ManualMove != "" {
		cmd = p.templates.ManualMove
	}

	p.setPosition(uint32(zMM * 1000))
	p.SetVariable("speed", strconv.FormatFloat(speedMMPerSec*60.0, 'f', -1, 64))
	defer func() {
		p.mu.Lock()
		delete(p.vars, "speed")
		p.mu.Unlock()
	}()

	if err := p.SendAndAwait(ctx, cmd, p.templates.MoveSync, p.templates.MoveTimeout); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}

// StartCuring flips the mirrored curing flag on and executes cure-start.
func (p *Protocol) StartCuring() (PhysicalState, error) {
	p.setCuring(true)
	if err := p.Send(p.templates.CureStart); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}

// StopCuring flips the mirrored curing flag off and executes cure-end.
func (p *Protocol) StopCuring() (PhysicalState, error) {
	p.setCuring(false)
	if err := p.Send(p.templates.CureEnd); err != nil {
		return PhysicalState{}, err
	}
	return p.State(), nil
}
