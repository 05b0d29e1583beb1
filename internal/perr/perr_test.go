package perr

import (
	"errors"
	"fmt"
	"testing"
)

func TestDefaultStatusByKind(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Hardware, 500},
		{InternalState, 500},
		{Configuration, 400},
		{Print, 409},
		{File, 404},
	}
	for _, c := range cases {
		err := New(c.kind, errors.New("boom"))
		if err.Status != c.want {
			t.Errorf("kind %s: got status %d, want %d", c.kind, err.Status, c.want)
		}
	}
}

func TestWithStatusOverrides(t *testing.T) {
	err := FileErr(errors.New("permission denied")).WithStatus(403)
	if err.Status != 403 {
		t.Fatalf("got %d, want 403", err.Status)
	}
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	base := HardwareErr(errors.New("timeout"))
	wrapped := fmt.Errorf("operation failed: %w", base)

	kind, ok := KindOf(wrapped)
	if !ok {
		t.Fatal("expected KindOf to find the wrapped *Error")
	}
	if kind != Hardware {
		t.Fatalf("got kind %s, want hardware", kind)
	}
}

func TestKindOfFalseForPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("expected KindOf to report false for a non-perr error")
	}
}

func TestErrorMessageIncludesKindAndCause(t *testing.T) {
	err := ConfigurationErr(errors.New("missing field"))
	got := err.Error()
	want := "configuration: missing field"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
