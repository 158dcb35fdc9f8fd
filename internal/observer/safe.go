package observer

import (
	"sync"

	"github.com/roach88/rxcore/internal/event"
)

const safeComponent = "observer.Safe"

// Safe wraps an Observer and enforces the protocol on it.
//
// Events are accepted into a FIFO under a mutex and delivered by whichever
// goroutine currently owns the emitting flag. A call that arrives while
// another goroutine (or an outer frame on the same goroutine) is emitting
// only enqueues; the owner delivers it before releasing the flag. Delivery
// order therefore equals acceptance order, and the terminated flag is
// checked-and-set atomically with acceptance.
//
// Thread-safety: all methods are safe for concurrent use.
type Safe[T, E any] struct {
	mu         sync.Mutex
	target     Observer[T, E]
	pending    fifo[event.Event[T, E]]
	emitting   bool
	terminated bool
}

// NewSafe wraps o. If o is already a *Safe it is returned unchanged.
func NewSafe[T, E any](o Observer[T, E]) *Safe[T, E] {
	if s, ok := o.(*Safe[T, E]); ok {
		return s
	}
	return &Safe[T, E]{target: o}
}

// OnNext delivers value, panicking if a terminal was already accepted.
func (s *Safe[T, E]) OnNext(value T) {
	ev := event.Next[T, E](value)
	if !s.offer(ev) {
		Violation(safeComponent, ErrCodeNextAfterTerminal, ev)
	}
	s.drain()
}

// OnTerminal delivers terminal, panicking if one was already accepted.
func (s *Safe[T, E]) OnTerminal(terminal event.Terminal[E]) {
	ev := event.Terminated[T](terminal)
	if !terminal.Valid() {
		Violation(safeComponent, ErrCodeInvalidTerminal, ev)
	}
	if !s.offer(ev) {
		Violation(safeComponent, ErrCodeDoubleTerminal, ev)
	}
	s.drain()
}

// TryNext delivers value unless the observer already terminated.
// Returns false if the value was dropped.
func (s *Safe[T, E]) TryNext(value T) bool {
	if !s.offer(event.Next[T, E](value)) {
		return false
	}
	s.drain()
	return true
}

// TryTerminal delivers terminal unless the observer already terminated.
// Returns false if the terminal was dropped.
func (s *Safe[T, E]) TryTerminal(terminal event.Terminal[E]) bool {
	ev := event.Terminated[T](terminal)
	if !terminal.Valid() {
		Violation(safeComponent, ErrCodeInvalidTerminal, ev)
	}
	if !s.offer(ev) {
		return false
	}
	s.drain()
	return true
}

// TryEmit delivers ev unless the observer already terminated.
func (s *Safe[T, E]) TryEmit(ev event.Event[T, E]) bool {
	if v, ok := ev.Value(); ok {
		return s.TryNext(v)
	}
	t, _ := ev.Terminal()
	return s.TryTerminal(t)
}

// Cancel delivers a synthetic Cancelled terminal if the observer has not
// terminated yet. Returns true if Cancelled was accepted.
func (s *Safe[T, E]) Cancel() bool {
	return s.TryTerminal(event.Cancelled[E]())
}

// Terminated reports whether a terminal has been accepted.
// The terminal may still be in flight on another goroutine.
func (s *Safe[T, E]) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// Hold accepts ev without delivering it. The caller must call Flush once
// it has released any locks of its own. Returns false if ev was dropped
// because the observer already terminated.
//
// Hold lets a caller fix the position of an event in the delivery order
// while it still holds a lock, without running user code under that lock.
func (s *Safe[T, E]) Hold(ev event.Event[T, E]) bool {
	if t, ok := ev.Terminal(); ok && !t.Valid() {
		Violation(safeComponent, ErrCodeInvalidTerminal, ev)
	}
	return s.offer(ev)
}

// Flush delivers everything accepted so far.
func (s *Safe[T, E]) Flush() {
	s.drain()
}

// offer appends ev to the pending queue. Acceptance of a terminal flips
// the terminated flag in the same critical section.
func (s *Safe[T, E]) offer(ev event.Event[T, E]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return false
	}
	if ev.IsTerminal() {
		s.terminated = true
	}
	s.pending.push(ev)
	return true
}

// drain delivers pending events until the queue is empty.
// Only one goroutine drains at a time; the lock is released around
// each call into the wrapped observer.
func (s *Safe[T, E]) drain() {
	s.mu.Lock()
	if s.emitting {
		s.mu.Unlock()
		return
	}
	s.emitting = true

	released := false
	defer func() {
		// Reached with released == false only if user code panicked.
		if !released {
			s.mu.Lock()
			s.emitting = false
			s.mu.Unlock()
		}
	}()

	for {
		ev, ok := s.pending.pop()
		if !ok || s.target == nil {
			s.emitting = false
			released = true
			s.mu.Unlock()
			return
		}
		target := s.target
		if ev.IsTerminal() {
			// The observer is consumed by its terminal.
			s.target = nil
		}
		s.mu.Unlock()

		Emit(target, ev)

		s.mu.Lock()
	}
}
