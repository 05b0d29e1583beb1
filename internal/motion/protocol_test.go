package motion

import (
	"context"
	"testing"
	"time"
)

type testLogger struct{}

func (testLogger) Debug(string, ...interface{})   {}
func (testLogger) Info(string, ...interface{})    {}
func (testLogger) Warning(string, ...interface{}) {}
func (testLogger) Error(string, ...interface{})   {}

// echoPeer mirrors the original implementation's MockSerialHandler: it
// answers every outgoing line with a canned response, either a
// per-message override or a default.
type echoPeer struct {
	comms     *Comms
	responses map[string]string
	def       string
}

func startEchoPeer(ctx context.Context, peer *Comms, def string, responses map[string]string) {
	go func() {
		for {
			line, err := peer.Receive(ctx)
			if err != nil {
				return
			}
			resp, ok := responses[line]
			if !ok {
				resp = def
			}
			peer.Send(resp)
		}
	}()
}

func TestSubstituteUnknownVariableFails(t *testing.T) {
	p := NewProtocol(testLogger{}, NewComms(testLogger{}), Templates{})
	if _, err := p.substitute("G1 Z{bogus}"); err == nil {
		t.Fatal("expected an error substituting an undefined variable")
	}
}

func TestSubstituteReservedAndCallerVariables(t *testing.T) {
	p := NewProtocol(testLogger{}, NewComms(testLogger{}), Templates{})
	p.SetVariable("layer", "3")
	p.setPosition(1500)
	got, err := p.substitute("G1 Z{z} L{layer} C{curing}")
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	want := "G1 Z1.5 L3 Cfalse"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClearVariablesRemovesCallerVars(t *testing.T) {
	p := NewProtocol(testLogger{}, NewComms(testLogger{}), Templates{})
	p.SetVariable("layer", "3")
	p.ClearVariables()
	if _, err := p.substitute("{layer}"); err == nil {
		t.Fatal("expected {layer} to be undefined after ClearVariables")
	}
}

func TestSendAndAwaitSucceedsOnMatchingEcho(t *testing.T) {
	comms := NewComms(testLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startEchoPeer(ctx, comms.Invert(), "ok", map[string]string{})

	p := NewProtocol(testLogger{}, comms, Templates{})
	if err := p.SendAndAwait(ctx, "G1 Z1", "ok", time.Second); err != nil {
		t.Fatalf("SendAndAwait: %v", err)
	}
}

func TestSendAndAwaitTimesOut(t *testing.T) {
	comms := NewComms(testLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// No echo peer running: nothing will ever answer.

	p := NewProtocol(testLogger{}, comms, Templates{})
	err := p.SendAndAwait(ctx, "G1 Z1", "ok", 150*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestMoveZUpdatesMirroredState(t *testing.T) {
	comms := NewComms(testLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startEchoPeer(ctx, comms.Invert(), "moved", map[string]string{})

	p := NewProtocol(testLogger{}, comms, Templates{Move: "G1 Z{z} F{speed}", MoveSync: "moved", MoveTimeout: time.Second})
	ps, err := p.MoveZ(ctx, 12.5, 10, false)
	if err != nil {
		t.Fatalf("MoveZ: %v", err)
	}
	if ps.ZMicrons != 12500 {
		t.Fatalf("got ZMicrons %d, want 12500", ps.ZMicrons)
	}
	if _, err := p.substitute("{speed}"); err == nil {
		t.Fatal("expected {speed} to be cleared after MoveZ returns")
	}
}

func TestManualMoveUsesManualTemplate(t *testing.T) {
	comms := NewComms(testLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gotLine string
	peer := comms.Invert()
	go func() {
		line, err := peer.Receive(ctx)
		if err != nil {
			return
		}
		gotLine = line
		peer.Send("moved")
	}()

	p := NewProtocol(testLogger{}, comms, Templates{
		Move:       "AUTO Z{z}",
		ManualMove: "MANUAL Z{z}",
		MoveSync:   "moved",
		MoveTimeout: time.Second,
	})
	if _, err := p.MoveZ(ctx, 1, 1, true); err != nil {
		t.Fatalf("MoveZ: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if gotLine != "MANUAL Z1" {
		t.Fatalf("got line %q, want MANUAL Z1", gotLine)
	}
}
