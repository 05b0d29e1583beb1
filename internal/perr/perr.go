/*
DESCRIPTION
  perr.go defines the error kinds shared across the printer
  core, each carrying an HTTP-suitable status hint.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package perr defines the error kinds shared across the printer core:
// hardware faults, internal state corruption, configuration mistakes,
// print-file problems and file-system errors, each carrying an
// HTTP-suitable status hint for the façade to surface.
package perr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error for both logging and the HTTP façade.
type Kind int

const (
	// Hardware covers transport, protocol and frame-buffer faults.
	Hardware Kind = iota
	// InternalState covers task join failures and closed channels.
	InternalState
	// Configuration covers missing template variables and malformed config.
	Configuration
	// Print covers an archive that is invalid for the requested operation.
	Print
	// File covers missing/unreadable files, permission and quota errors.
	File
)

func (k Kind) String() string {
	switch k {
	case Hardware:
		return "hardware"
	case InternalState:
		return "internal_state"
	case Configuration:
		return "configuration"
	case Print:
		return "print"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// Error is the error type used throughout the printer core.
type Error struct {
	Kind   Kind
	Status int // HTTP status hint.
	cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// New wraps cause as an Error of the given kind with a default status hint.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Status: defaultStatus(kind), cause: errors.WithStack(cause)}
}

// Newf builds an Error from a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, errors.Errorf(format, args...))
}

// WithStatus overrides the default HTTP status hint, e.g. 404 for
// not-found, 403 for permission, 409 for exists, 413 too-large,
// 507 storage-full, 400 for invalid-input.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

func defaultStatus(kind Kind) int {
	switch kind {
	case File:
		return 404
	case Configuration:
		return 400
	case Print:
		return 409
	default:
		return 500
	}
}

// HardwareErr wraps cause as a Hardware error.
func HardwareErr(cause error) *Error { return New(Hardware, cause) }

// InternalStateErr wraps cause as an InternalState error.
func InternalStateErr(cause error) *Error { return New(InternalState, cause) }

// ConfigurationErr wraps cause as a Configuration error.
func ConfigurationErr(cause error) *Error { return New(Configuration, cause) }

// PrintErr wraps cause as a Print error.
func PrintErr(cause error) *Error { return New(Print, cause) }

// FileErr wraps cause as a File error.
func FileErr(cause error) *Error { return New(File, cause) }

// KindOf reports the Kind of err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
