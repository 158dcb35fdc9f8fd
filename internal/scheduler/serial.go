package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultQueueCapacity is the initial capacity of the ready queue.
const DefaultQueueCapacity = 64

// Serial is a single-writer scheduler.
//
// Ready tasks are executed one at a time, in FIFO order, on the goroutine
// that calls Run. Delayed tasks wait on a timer and are appended to the
// ready queue when it fires, so two tasks with the same delay run in the
// order their timers fired.
//
// Thread-safety model:
//   - Schedule(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(): safe from any goroutine, idempotent
//
// ERROR HANDLING: a task that panics is logged with its sequence number and
// the loop continues with the next task.
type Serial struct {
	queue  *taskQueue
	clock  *Clock
	logger *slog.Logger

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	stopped bool
}

// SerialOption configures a Serial scheduler.
type SerialOption func(*serialConfig)

type serialConfig struct {
	logger   *slog.Logger
	capacity int
}

// WithSerialLogger sets the logger used by the run loop.
// Default: slog.Default().
func WithSerialLogger(l *slog.Logger) SerialOption {
	return func(c *serialConfig) {
		c.logger = l
	}
}

// WithQueueCapacity sets the initial ready-queue capacity.
// Default: 64 (DefaultQueueCapacity).
func WithQueueCapacity(n int) SerialOption {
	return func(c *serialConfig) {
		c.capacity = n
	}
}

// NewSerial creates a Serial scheduler. Call Run to start executing tasks.
func NewSerial(opts ...SerialOption) *Serial {
	cfg := serialConfig{
		logger:   slog.Default(),
		capacity: DefaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity < 0 {
		cfg.capacity = 0
	}

	return &Serial{
		queue:  newTaskQueue(cfg.capacity),
		clock:  NewClock(),
		logger: cfg.logger,
		timers: make(map[int64]*time.Timer),
	}
}

// Schedule implements Scheduler.
// Tasks scheduled after Stop are dropped and the returned CancelFunc is a
// no-op.
func (s *Serial) Schedule(fn func(), delay time.Duration) CancelFunc {
	t := newTask(s.clock.Next(), fn)

	if delay <= 0 {
		s.enqueue(t)
		return func() { t.cancel() }
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Debug("task dropped: scheduler stopped", "seq", t.seq)
		return func() {}
	}
	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, t.seq)
		s.mu.Unlock()
		s.enqueue(t)
	})
	s.timers[t.seq] = timer
	s.mu.Unlock()

	return func() {
		if !t.cancel() {
			return
		}
		s.mu.Lock()
		if timer, ok := s.timers[t.seq]; ok {
			timer.Stop()
			delete(s.timers, t.seq)
		}
		s.mu.Unlock()
	}
}

func (s *Serial) enqueue(t *task) {
	if !s.queue.Enqueue(t) {
		s.logger.Debug("task dropped: scheduler stopped", "seq", t.seq)
	}
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled or Stop is called; tasks already in the
// ready queue when Stop is called still run before Run returns.
func (s *Serial) Run(ctx context.Context) error {
	s.logger.Info("serial scheduler starting")

	for {
		if t, ok := s.queue.TryDequeue(); ok {
			s.execute(t)
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("serial scheduler stopping: context cancelled")
			s.Stop()
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel closes with the queue, so this case keeps
			// firing until the remaining tasks are drained.
			if s.queue.Drained() {
				s.logger.Info("serial scheduler stopping: queue closed")
				return nil
			}
		}
	}
}

// execute runs one task, logging instead of propagating a panic.
func (s *Serial) execute(t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				"seq", t.seq,
				"panic", fmt.Sprint(r),
			)
		}
	}()

	if !t.run() {
		s.logger.Debug("skipping cancelled task", "seq", t.seq)
	}
}

// Stop closes the ready queue and stops pending timers.
// Run returns once the ready queue is empty.
func (s *Serial) Stop() {
	s.mu.Lock()
	s.stopped = true
	for seq, timer := range s.timers {
		timer.Stop()
		delete(s.timers, seq)
	}
	s.mu.Unlock()

	s.queue.Close()
}

// Pending returns the number of ready tasks plus tasks waiting on a timer.
// Useful for monitoring and testing.
func (s *Serial) Pending() int {
	s.mu.Lock()
	waiting := len(s.timers)
	s.mu.Unlock()
	return waiting + s.queue.Len()
}
