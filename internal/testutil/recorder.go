package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/roach88/rxcore/internal/event"
)

// Recorder is an observer that logs every event it receives.
//
// Recorder checks the protocol on its own: it panics if anything arrives
// after a terminal. Tests use it as the downstream end of a pipeline and
// then assert on the recorded log.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder[T, E any] struct {
	mu     sync.Mutex
	events []event.Event[T, E]
	done   chan struct{}
	clock  func() time.Time
	times  []time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder[T, E any]() *Recorder[T, E] {
	return &Recorder[T, E]{
		done:  make(chan struct{}),
		clock: time.Now,
	}
}

// OnNext records a value.
func (r *Recorder[T, E]) OnNext(value T) {
	r.record(event.Next[T, E](value))
}

// OnTerminal records the terminal and releases WaitTerminal callers.
func (r *Recorder[T, E]) OnTerminal(terminal event.Terminal[E]) {
	r.record(event.Terminated[T](terminal))
	close(r.done)
}

func (r *Recorder[T, E]) record(ev event.Event[T, E]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.events); n > 0 && r.events[n-1].IsTerminal() {
		panic(fmt.Sprintf("Recorder: %s received after %s", ev, r.events[n-1]))
	}
	r.events = append(r.events, ev)
	r.times = append(r.times, r.clock())
}

// Events returns a copy of the recorded log.
func (r *Recorder[T, E]) Events() []event.Event[T, E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event[T, E], len(r.events))
	copy(out, r.events)
	return out
}

// Times returns the wall-clock arrival time of each recorded event.
func (r *Recorder[T, E]) Times() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.times))
	copy(out, r.times)
	return out
}

// Log renders the recorded events as strings ("next:1", "completed", ...).
func (r *Recorder[T, E]) Log() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.String()
	}
	return out
}

// Values returns the recorded Next payloads in order.
func (r *Recorder[T, E]) Values() []T {
	events := r.Events()
	out := make([]T, 0, len(events))
	for _, ev := range events {
		if v, ok := ev.Value(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Terminal returns the recorded terminal, if any.
func (r *Recorder[T, E]) Terminal() (event.Terminal[E], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.events); n > 0 {
		return r.events[n-1].Terminal()
	}
	return event.Terminal[E]{}, false
}

// Terminated reports whether a terminal has been recorded.
func (r *Recorder[T, E]) Terminated() bool {
	_, ok := r.Terminal()
	return ok
}

// IsCompleted reports whether the log ends with Completed.
func (r *Recorder[T, E]) IsCompleted() bool {
	t, ok := r.Terminal()
	return ok && t.IsCompleted()
}

// IsCancelled reports whether the log ends with Cancelled.
func (r *Recorder[T, E]) IsCancelled() bool {
	t, ok := r.Terminal()
	return ok && t.IsCancelled()
}

// IsError reports whether the log ends with an Error terminal.
func (r *Recorder[T, E]) IsError() bool {
	t, ok := r.Terminal()
	return ok && t.IsError()
}

// Len returns the number of recorded events.
func (r *Recorder[T, E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// WaitTerminal blocks until a terminal is recorded or timeout elapses.
func (r *Recorder[T, E]) WaitTerminal(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
