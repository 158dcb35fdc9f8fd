package event

import "fmt"

// TerminalKind distinguishes the three ways a stream can end.
type TerminalKind int

const (
	// KindCompleted means the source finished normally.
	KindCompleted TerminalKind = iota + 1
	// KindError means the source failed with a domain error.
	KindError
	// KindCancelled means the subscriber disposed its subscription early.
	KindCancelled
)

// String returns the lower-case name used in traces.
func (k TerminalKind) String() string {
	switch k {
	case KindCompleted:
		return "completed"
	case KindError:
		return "error"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("terminal(%d)", int(k))
	}
}

// Terminal is the final signal of a stream.
// The zero value is invalid; use Completed, Errored or Cancelled.
type Terminal[E any] struct {
	Kind TerminalKind
	Err  E // set only when Kind == KindError
}

// Completed returns a completion terminal.
func Completed[E any]() Terminal[E] {
	return Terminal[E]{Kind: KindCompleted}
}

// Errored returns an error terminal carrying err.
func Errored[E any](err E) Terminal[E] {
	return Terminal[E]{Kind: KindError, Err: err}
}

// Cancelled returns the terminal synthesized on early disposal.
func Cancelled[E any]() Terminal[E] {
	return Terminal[E]{Kind: KindCancelled}
}

// IsCompleted reports whether t is a completion.
func (t Terminal[E]) IsCompleted() bool { return t.Kind == KindCompleted }

// IsError reports whether t carries a domain error.
func (t Terminal[E]) IsError() bool { return t.Kind == KindError }

// IsCancelled reports whether t was synthesized by disposal.
func (t Terminal[E]) IsCancelled() bool { return t.Kind == KindCancelled }

// Valid reports whether t is one of the three known kinds.
func (t Terminal[E]) Valid() bool {
	return t.Kind >= KindCompleted && t.Kind <= KindCancelled
}

func (t Terminal[E]) String() string {
	if t.Kind == KindError {
		return fmt.Sprintf("error:%v", t.Err)
	}
	return t.Kind.String()
}

// Event is either a Next value or a Terminal.
type Event[T, E any] struct {
	value    T
	terminal Terminal[E]
	isNext   bool
}

// Next wraps a value.
func Next[T, E any](value T) Event[T, E] {
	return Event[T, E]{value: value, isNext: true}
}

// Terminated wraps a terminal.
func Terminated[T, E any](t Terminal[E]) Event[T, E] {
	return Event[T, E]{terminal: t}
}

// IsNext reports whether e carries a value.
func (e Event[T, E]) IsNext() bool { return e.isNext }

// IsTerminal reports whether e ends the stream.
func (e Event[T, E]) IsTerminal() bool { return !e.isNext }

// Value returns the carried value and true for Next events.
func (e Event[T, E]) Value() (T, bool) {
	return e.value, e.isNext
}

// Terminal returns the carried terminal and true for terminal events.
func (e Event[T, E]) Terminal() (Terminal[E], bool) {
	return e.terminal, !e.isNext
}

func (e Event[T, E]) String() string {
	if e.isNext {
		return fmt.Sprintf("next:%v", e.value)
	}
	return e.terminal.String()
}

// MapValue transforms the value of a Next event. Terminals pass through.
func MapValue[T, T2, E any](e Event[T, E], f func(T) T2) Event[T2, E] {
	if e.isNext {
		return Next[T2, E](f(e.value))
	}
	return Terminated[T2, E](e.terminal)
}

// MapError transforms the error of an Error terminal. Next events and the
// other terminal kinds pass through untouched.
func MapError[T, E, E2 any](e Event[T, E], f func(E) E2) Event[T, E2] {
	if e.isNext {
		return Next[T, E2](e.value)
	}
	return Terminated[T, E2](MapTerminal(e.terminal, f))
}

// MapTerminal transforms the error of t, preserving its kind.
func MapTerminal[E, E2 any](t Terminal[E], f func(E) E2) Terminal[E2] {
	if t.Kind == KindError {
		return Errored(f(t.Err))
	}
	return Terminal[E2]{Kind: t.Kind}
}
