package subject

import (
	"log/slog"
	"sync"

	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observer"
	"github.com/roach88/rxcore/internal/subscription"
)

const subjectComponent = "subject.Subject"

// Subject is a multicast hub with no memory.
//
// Values are delivered to the observers registered when OnNext takes its
// snapshot. Observers registered later see only later events.
//
// Thread-safety: all methods are safe for concurrent use, subject to the
// upstream protocol described in the package documentation.
type Subject[T, E any] struct {
	mu         sync.RWMutex
	registry   registry[T, E]
	terminated bool

	ids    subscription.IDGenerator
	logger *slog.Logger
}

// New creates a live Subject.
func New[T, E any](opts ...Option[T]) *Subject[T, E] {
	cfg := newConfig(opts)
	return &Subject[T, E]{
		registry: newRegistry[T, E](),
		ids:      cfg.ids,
		logger:   cfg.logger,
	}
}

// Subscribe registers o for future events.
//
// If the Subject already terminated, nothing is registered or delivered
// and the returned Subscription is already disposed.
func (s *Subject[T, E]) Subscribe(o observer.Observer[T, E]) *subscription.Subscription {
	id := s.ids.Generate()
	safe := observer.NewSafe(o)

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		s.logger.Debug("subscribe after terminal", "subscription_id", id)
		return subscription.Disposed(subscription.WithID(id))
	}
	key := s.registry.add(safe)
	count := s.registry.len()
	s.mu.Unlock()

	s.logger.Debug("observer subscribed", "subscription_id", id, "observers", count)

	return subscription.Guarding(safe, func() { s.remove(key) }, subscription.WithID(id))
}

func (s *Subject[T, E]) remove(key uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.remove(key)
}

// OnNext fans value out to every registered observer.
// Panics with *observer.ProtocolError if the Subject already terminated.
func (s *Subject[T, E]) OnNext(value T) {
	if !s.next(value) {
		observer.Violation(subjectComponent, observer.ErrCodeNextAfterTerminal, event.Next[T, E](value))
	}
}

// OnTerminal fans terminal out and clears the registry.
// Panics with *observer.ProtocolError if the Subject already terminated.
func (s *Subject[T, E]) OnTerminal(terminal event.Terminal[E]) {
	ev := event.Terminated[T](terminal)
	if !terminal.Valid() {
		observer.Violation(subjectComponent, observer.ErrCodeInvalidTerminal, ev)
	}
	if !s.terminate(terminal) {
		observer.Violation(subjectComponent, observer.ErrCodeDoubleTerminal, ev)
	}
}

// Notify delivers ev unless the Subject already terminated.
// Returns false if ev was dropped.
func (s *Subject[T, E]) Notify(ev event.Event[T, E]) bool {
	if v, ok := ev.Value(); ok {
		return s.next(v)
	}
	t, _ := ev.Terminal()
	if !t.Valid() {
		observer.Violation(subjectComponent, observer.ErrCodeInvalidTerminal, ev)
	}
	return s.terminate(t)
}

func (s *Subject[T, E]) next(value T) bool {
	s.mu.RLock()
	if s.terminated {
		s.mu.RUnlock()
		return false
	}
	targets := s.registry.snapshot()
	s.mu.RUnlock()

	for _, o := range targets {
		o.TryNext(value)
	}
	return true
}

func (s *Subject[T, E]) terminate(terminal event.Terminal[E]) bool {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return false
	}
	s.terminated = true
	targets := s.registry.drain()
	s.mu.Unlock()

	s.logger.Debug("subject terminated",
		"terminal", terminal.String(),
		"observers", len(targets),
	)

	for _, o := range targets {
		o.TryTerminal(terminal)
	}
	return true
}

// ObserverCount returns the number of registered observers.
func (s *Subject[T, E]) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.len()
}

// Terminated reports whether a terminal has been accepted.
func (s *Subject[T, E]) Terminated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminated
}
