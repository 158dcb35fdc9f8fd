package subject

import (
	"log/slog"

	"github.com/roach88/rxcore/internal/subscription"
)

// Option configures a Subject or Behavior.
type Option[T any] func(*config[T])

type config[T any] struct {
	clone  func(T) T
	ids    subscription.IDGenerator
	logger *slog.Logger
}

func newConfig[T any](opts []Option[T]) config[T] {
	cfg := config[T]{
		clone:  func(v T) T { return v },
		ids:    subscription.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithClone sets the function used to copy a value before it is retained
// or handed to an observer, so no two observers share mutable state.
// Default: values are copied by assignment.
//
// Only Behavior retains values; Subject ignores this option.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(c *config[T]) {
		if clone != nil {
			c.clone = clone
		}
	}
}

// WithIDGenerator sets the generator for subscription IDs.
// Default: subscription.UUIDv7Generator.
func WithIDGenerator[T any](ids subscription.IDGenerator) Option[T] {
	return func(c *config[T]) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// WithLogger sets the logger for subscription and termination events.
// Default: slog.Default().
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(c *config[T]) {
		if l != nil {
			c.logger = l
		}
	}
}
