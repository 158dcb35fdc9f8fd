package scheduler

import "time"

// Goroutine runs every task on a fresh goroutine.
// Delayed tasks are started by time.AfterFunc.
//
// Tasks run concurrently; callers that need ordering must impose it
// themselves (operator.Delay does).
type Goroutine struct {
	clock Clock
}

// NewGoroutine creates a Goroutine scheduler.
func NewGoroutine() *Goroutine {
	return &Goroutine{}
}

// Schedule implements Scheduler.
func (g *Goroutine) Schedule(fn func(), delay time.Duration) CancelFunc {
	t := newTask(g.clock.Next(), fn)

	if delay <= 0 {
		go t.run()
		return func() { t.cancel() }
	}

	timer := time.AfterFunc(delay, func() { t.run() })
	return func() {
		if t.cancel() {
			timer.Stop()
		}
	}
}
