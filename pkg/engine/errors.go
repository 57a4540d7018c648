package engine

import (
	"errors"
	"fmt"
)

// Failure reasons carried by RegistrationError. Also used as the label on
// the registration failure metric, so orchestration tooling can distinguish
// "never registered" causes.
const (
	ReasonRejected  = "rejected"  // controller replied with a non-"ok" status
	ReasonMalformed = "malformed" // response could not be parsed
	ReasonTimeout   = "timeout"   // no response within the handshake timeout
	ReasonNoQueue   = "no_queue"  // queue channel required but unavailable
)

// RegistrationError is the typed, fatal outcome of a failed registration
// handshake. The engine cannot operate without its identity assignment and
// channels, so callers terminate the process on it; no retry is performed at
// this layer.
type RegistrationError struct {
	Reason string // one of the Reason constants
	Status string // controller status when Reason == ReasonRejected
	Detail string // controller-provided detail, e.g. "duplicate-id"
	Err    error  // underlying parse or transport error, if any
}

func (e *RegistrationError) Error() string {
	switch {
	case e.Reason == ReasonRejected && e.Detail != "":
		return fmt.Sprintf("registration rejected: status=%q reason=%q", e.Status, e.Detail)
	case e.Reason == ReasonRejected:
		return fmt.Sprintf("registration rejected: status=%q", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("registration failed (%s): %v", e.Reason, e.Err)
	default:
		return fmt.Sprintf("registration failed (%s)", e.Reason)
	}
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

var (
	// ErrAlreadyStarted guards handshake re-entry: register is called
	// exactly once per process lifetime, and a second call while a response
	// is pending must not send a second concurrent request.
	ErrAlreadyStarted = errors.New("engine: registration already started")

	// ErrNotRunning indicates Unregister on an engine that never reached
	// RUNNING or already left it.
	ErrNotRunning = errors.New("engine: not running")
)
