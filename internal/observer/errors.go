package observer

import (
	"errors"
	"fmt"
	"log/slog"
)

// ProtocolError reports a violation of the observer protocol.
//
// Violations are programming errors in operator or producer code, not
// runtime conditions: they are raised with panic, never returned.
// Recover and inspect with errors.As when testing composition code.
type ProtocolError struct {
	// Code identifies the violation.
	Code ProtocolErrorCode

	// Message is a human-readable description.
	Message string

	// Component names the engine part that detected the violation
	// (e.g. "observer.Safe", "subject.Subject").
	Component string

	// Event is the rejected event rendered as a string.
	Event string
}

// ProtocolErrorCode categorizes protocol violations.
type ProtocolErrorCode string

const (
	// ErrCodeNextAfterTerminal indicates a value delivered after termination.
	ErrCodeNextAfterTerminal ProtocolErrorCode = "NEXT_AFTER_TERMINAL"

	// ErrCodeDoubleTerminal indicates a second terminal signal.
	ErrCodeDoubleTerminal ProtocolErrorCode = "DOUBLE_TERMINAL"

	// ErrCodeInvalidTerminal indicates a zero-valued or unknown terminal kind.
	ErrCodeInvalidTerminal ProtocolErrorCode = "INVALID_TERMINAL"
)

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: %s (component=%s, event=%s)", e.Code, e.Message, e.Component, e.Event)
	}
	return fmt.Sprintf("%s: %s (component=%s)", e.Code, e.Message, e.Component)
}

// IsProtocolError returns true if err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsNextAfterTerminal returns true if err reports a value after termination.
func IsNextAfterTerminal(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeNextAfterTerminal
	}
	return false
}

// IsDoubleTerminal returns true if err reports a second terminal.
func IsDoubleTerminal(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeDoubleTerminal
	}
	return false
}

// Violation logs a protocol violation and panics with a *ProtocolError.
func Violation(component string, code ProtocolErrorCode, ev fmt.Stringer) {
	pe := &ProtocolError{
		Code:      code,
		Component: component,
	}
	switch code {
	case ErrCodeNextAfterTerminal:
		pe.Message = "value delivered after terminal"
	case ErrCodeDoubleTerminal:
		pe.Message = "terminal delivered twice"
	case ErrCodeInvalidTerminal:
		pe.Message = "terminal kind is not completed, error or cancelled"
	default:
		pe.Message = "protocol violation"
	}
	if ev != nil {
		pe.Event = ev.String()
	}

	slog.Error("observer protocol violation",
		"code", string(pe.Code),
		"component", pe.Component,
		"event", pe.Event,
	)
	panic(pe)
}
