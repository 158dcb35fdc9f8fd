package operator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observable"
	"github.com/roach88/rxcore/internal/observer"
	"github.com/roach88/rxcore/internal/scheduler"
	"github.com/roach88/rxcore/internal/subscription"
)

// DelayOption configures Delay.
type DelayOption func(*delayConfig)

type delayConfig struct {
	logger *slog.Logger
}

// WithDelayLogger sets the logger for dropped and cancelled deliveries.
// Default: slog.Default().
func WithDelayLogger(l *slog.Logger) DelayOption {
	return func(c *delayConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Delay shifts values and Completed from source by d on sched.
//
// Behavior:
//   - Next and Completed are delivered no earlier than d after they were
//     received, in the order they were received, whatever order sched
//     runs the tasks in.
//   - Error and Cancelled from upstream are delivered immediately. Any
//     delivery still waiting on the scheduler is cancelled and its value
//     dropped.
//   - Disposing the returned Subscription cancels every outstanding task
//     before unsubscribing from source, then delivers Cancelled.
func Delay[T, E any](source observable.Observable[T, E], d time.Duration, sched scheduler.Scheduler, opts ...DelayOption) observable.Observable[T, E] {
	cfg := delayConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return observable.Func[T, E](func(o observer.Observer[T, E]) *subscription.Subscription {
		down := observer.NewSafe(o)
		state := &delayState[T, E]{
			down:    down,
			delay:   d,
			sched:   sched,
			logger:  cfg.logger,
			seq:     scheduler.NewClock(),
			pending: make(map[int64]scheduler.CancelFunc),
			ready:   make(map[int64]event.Event[T, E]),
			next:    1,
		}

		upstream := source.Subscribe(state)
		sub := subscription.Guarding(down, upstream.Unsubscribe, subscription.WithID(upstream.ID()))
		sub.Prepend(state.stop)
		return sub
	})
}

// delayState is the observer Delay subscribes to source with.
// One instance exists per subscription.
type delayState[T, E any] struct {
	down   *observer.Safe[T, E]
	delay  time.Duration
	sched  scheduler.Scheduler
	logger *slog.Logger
	seq    *scheduler.Clock

	mu      sync.Mutex
	pending map[int64]scheduler.CancelFunc // seq -> cancel; nil until Schedule returns
	ready   map[int64]event.Event[T, E]    // fired but waiting for an earlier seq
	next    int64                          // next seq to hand downstream
	stopped bool
}

func (s *delayState[T, E]) OnNext(value T) {
	s.enqueue(event.Next[T, E](value))
}

func (s *delayState[T, E]) OnTerminal(terminal event.Terminal[E]) {
	if terminal.IsCompleted() {
		s.enqueue(event.Terminated[T](terminal))
		return
	}

	s.mu.Lock()
	accepted := s.down.Hold(event.Terminated[T](terminal))
	cancels := s.stopLocked()
	s.mu.Unlock()

	s.cancelAll(cancels, terminal)
	if accepted {
		s.down.Flush()
	}
}

// enqueue schedules ev for delivery after the delay.
func (s *delayState[T, E]) enqueue(ev event.Event[T, E]) {
	seq := s.seq.Next()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Debug("delay: event after stop dropped", "seq", seq, "event", ev.String())
		return
	}
	s.pending[seq] = nil
	s.mu.Unlock()

	cancel := s.sched.Schedule(func() { s.fire(seq, ev) }, s.delay)

	s.mu.Lock()
	if _, waiting := s.pending[seq]; waiting {
		s.pending[seq] = cancel
		s.mu.Unlock()
		return
	}
	stopped := s.stopped
	s.mu.Unlock()

	// Already fired, or stop cleared the entry before the cancel was known.
	if stopped {
		cancel()
	}
}

// fire runs on the scheduler. It parks ev until every earlier event has
// been handed downstream, then releases the contiguous run.
func (s *delayState[T, E]) fire(seq int64, ev event.Event[T, E]) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.pending, seq)
	s.ready[seq] = ev

	released := 0
	for {
		next, ok := s.ready[s.next]
		if !ok {
			break
		}
		delete(s.ready, s.next)
		s.next++
		s.down.Hold(next)
		released++
	}
	s.mu.Unlock()

	if released > 0 {
		s.down.Flush()
	}
}

// stop cancels outstanding tasks and drops parked events.
func (s *delayState[T, E]) stop() {
	s.mu.Lock()
	cancels := s.stopLocked()
	s.mu.Unlock()

	s.cancelAll(cancels, event.Cancelled[E]())
}

func (s *delayState[T, E]) stopLocked() []scheduler.CancelFunc {
	if s.stopped {
		return nil
	}
	s.stopped = true

	cancels := make([]scheduler.CancelFunc, 0, len(s.pending))
	for _, cancel := range s.pending {
		if cancel != nil {
			cancels = append(cancels, cancel)
		}
	}
	clear(s.pending)
	clear(s.ready)
	return cancels
}

func (s *delayState[T, E]) cancelAll(cancels []scheduler.CancelFunc, reason event.Terminal[E]) {
	for _, cancel := range cancels {
		cancel()
	}
	if len(cancels) > 0 {
		s.logger.Debug("delay: pending deliveries cancelled",
			"count", len(cancels),
			"reason", reason.String(),
		)
	}
}
