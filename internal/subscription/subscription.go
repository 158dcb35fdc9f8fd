package subscription

import (
	"log/slog"
	"sync"
)

// Canceller is the part of a guarded observer that disposal needs.
// observer.Safe implements it.
type Canceller interface {
	// Cancel delivers Cancelled if the observer has not terminated.
	// Returns true if Cancelled was delivered.
	Cancel() bool
}

// Subscription is a one-shot cleanup handle.
//
// Thread-safety: all methods are safe for concurrent use. A concurrent
// second Unsubscribe returns immediately, possibly before the first one
// has finished running the teardown.
type Subscription struct {
	id string

	mu       sync.Mutex
	disposed bool
	teardown []func()
	guard    Canceller
}

// Option configures a Subscription at construction.
type Option func(*Subscription)

// WithID sets the identifier reported by ID and used in log attributes.
func WithID(id string) Option {
	return func(s *Subscription) {
		s.id = id
	}
}

// New creates a live Subscription that runs cleanup on disposal.
// A nil cleanup is allowed.
func New(cleanup func(), opts ...Option) *Subscription {
	s := &Subscription{}
	if cleanup != nil {
		s.teardown = []func(){cleanup}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Guarding creates a live Subscription that runs cleanup and then cancels
// guard on disposal.
func Guarding(guard Canceller, cleanup func(), opts ...Option) *Subscription {
	s := New(cleanup, opts...)
	s.guard = guard
	return s
}

// Empty returns a live Subscription with nothing to clean up.
func Empty(opts ...Option) *Subscription {
	return New(nil, opts...)
}

// Disposed returns a Subscription that is already disposed.
// Used when subscribing to a source that has nothing left to deliver.
func Disposed(opts ...Option) *Subscription {
	s := New(nil, opts...)
	s.disposed = true
	return s
}

// ID returns the identifier given at construction, or "".
func (s *Subscription) ID() string {
	return s.id
}

// IsDisposed reports whether disposal has started.
func (s *Subscription) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Prepend adds fn to run before every teardown action already registered.
// If the Subscription is already disposed, fn runs immediately.
// Returns s for chaining.
func (s *Subscription) Prepend(fn func()) *Subscription {
	if fn == nil {
		return s
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		fn()
		return s
	}
	s.teardown = append([]func(){fn}, s.teardown...)
	s.mu.Unlock()
	return s
}

// Unsubscribe disposes the Subscription.
//
// Teardown actions run in order, then the guarded observer (if any) is
// sent Cancelled unless it already terminated. Only the first call does
// anything.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	teardown := s.teardown
	guard := s.guard
	s.teardown = nil
	s.guard = nil
	s.mu.Unlock()

	for _, fn := range teardown {
		fn()
	}

	cancelled := false
	if guard != nil {
		cancelled = guard.Cancel()
	}

	slog.Debug("subscription disposed",
		"subscription_id", s.id,
		"teardown_steps", len(teardown),
		"cancelled", cancelled,
	)
}

// Close disposes the Subscription. It satisfies io.Closer so a
// Subscription can sit in the same defer chains as other resources.
// Always returns nil.
func (s *Subscription) Close() error {
	s.Unsubscribe()
	return nil
}
