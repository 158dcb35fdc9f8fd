package subject

import (
	"log/slog"
	"sync"

	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observer"
	"github.com/roach88/rxcore/internal/subscription"
)

const behaviorComponent = "subject.Behavior"

// Behavior is a Subject that remembers its latest value and terminal.
//
// A new subscriber first receives a copy of the current value, then every
// later event. The snapshot and the registration happen under one lock, and
// every fan-out fixes its position in each observer's queue before the lock
// is released, so no event is lost or duplicated across the boundary.
// Observer code still runs outside the lock.
//
// Thread-safety: all methods are safe for concurrent use, subject to the
// upstream protocol described in the package documentation.
type Behavior[T, E any] struct {
	mu         sync.RWMutex
	value      T
	terminal   event.Terminal[E]
	terminated bool
	registry   registry[T, E]

	clone  func(T) T
	ids    subscription.IDGenerator
	logger *slog.Logger
}

// NewBehavior creates a live Behavior holding seed.
func NewBehavior[T, E any](seed T, opts ...Option[T]) *Behavior[T, E] {
	cfg := newConfig(opts)
	return &Behavior[T, E]{
		value:    cfg.clone(seed),
		registry: newRegistry[T, E](),
		clone:    cfg.clone,
		ids:      cfg.ids,
		logger:   cfg.logger,
	}
}

// Subscribe sends o the current value and registers it for later events.
//
// If the Behavior already terminated, o receives only the remembered
// terminal and the returned Subscription is already disposed.
func (b *Behavior[T, E]) Subscribe(o observer.Observer[T, E]) *subscription.Subscription {
	id := b.ids.Generate()
	safe := observer.NewSafe(o)

	b.mu.Lock()
	if b.terminated {
		safe.Hold(event.Terminated[T](b.terminal))
		b.mu.Unlock()
		safe.Flush()

		b.logger.Debug("replayed terminal to late subscriber",
			"subscription_id", id,
			"terminal", b.terminal.String(),
		)
		return subscription.Disposed(subscription.WithID(id))
	}
	safe.Hold(event.Next[T, E](b.clone(b.value)))
	key := b.registry.add(safe)
	count := b.registry.len()
	b.mu.Unlock()
	safe.Flush()

	b.logger.Debug("observer subscribed", "subscription_id", id, "observers", count)

	return subscription.Guarding(safe, func() { b.remove(key) }, subscription.WithID(id))
}

func (b *Behavior[T, E]) remove(key uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry.remove(key)
}

// OnNext stores value and fans it out.
// Panics with *observer.ProtocolError if the Behavior already terminated.
func (b *Behavior[T, E]) OnNext(value T) {
	if !b.next(value) {
		observer.Violation(behaviorComponent, observer.ErrCodeNextAfterTerminal, event.Next[T, E](value))
	}
}

// OnTerminal stores terminal, fans it out and clears the registry.
// Panics with *observer.ProtocolError if the Behavior already terminated.
func (b *Behavior[T, E]) OnTerminal(terminal event.Terminal[E]) {
	ev := event.Terminated[T](terminal)
	if !terminal.Valid() {
		observer.Violation(behaviorComponent, observer.ErrCodeInvalidTerminal, ev)
	}
	if !b.terminate(terminal) {
		observer.Violation(behaviorComponent, observer.ErrCodeDoubleTerminal, ev)
	}
}

// Notify delivers ev unless the Behavior already terminated.
// Returns false if ev was dropped.
func (b *Behavior[T, E]) Notify(ev event.Event[T, E]) bool {
	if v, ok := ev.Value(); ok {
		return b.next(v)
	}
	t, _ := ev.Terminal()
	if !t.Valid() {
		observer.Violation(behaviorComponent, observer.ErrCodeInvalidTerminal, ev)
	}
	return b.terminate(t)
}

func (b *Behavior[T, E]) next(value T) bool {
	b.mu.Lock()
	if b.terminated {
		b.mu.Unlock()
		return false
	}
	b.value = b.clone(value)
	targets := b.registry.snapshot()
	for _, o := range targets {
		o.Hold(event.Next[T, E](b.clone(value)))
	}
	b.mu.Unlock()

	for _, o := range targets {
		o.Flush()
	}
	return true
}

func (b *Behavior[T, E]) terminate(terminal event.Terminal[E]) bool {
	b.mu.Lock()
	if b.terminated {
		b.mu.Unlock()
		return false
	}
	b.terminated = true
	b.terminal = terminal
	targets := b.registry.drain()
	for _, o := range targets {
		o.Hold(event.Terminated[T](terminal))
	}
	b.mu.Unlock()

	b.logger.Debug("behavior terminated",
		"terminal", terminal.String(),
		"observers", len(targets),
	)

	for _, o := range targets {
		o.Flush()
	}
	return true
}

// Value returns a copy of the most recent value (the seed if none).
// The value is retained after termination.
func (b *Behavior[T, E]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clone(b.value)
}

// Terminal returns the remembered terminal, if any.
func (b *Behavior[T, E]) Terminal() (event.Terminal[E], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.terminal, b.terminated
}

// ObserverCount returns the number of registered observers.
func (b *Behavior[T, E]) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.registry.len()
}

// Terminated reports whether a terminal has been accepted.
func (b *Behavior[T, E]) Terminated() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.terminated
}
