package scheduler

import (
	"sync/atomic"
	"time"
)

// Scheduler runs tasks after an optional delay.
type Scheduler interface {
	// Schedule arranges for task to run. A delay <= 0 means the task is
	// eligible to run immediately, possibly on another goroutine and with
	// no ordering guarantee relative to the caller's next statement.
	// A positive delay means the task does not start before delay elapses.
	Schedule(task func(), delay time.Duration) CancelFunc
}

// CancelFunc prevents a scheduled task from starting.
// Safe to call any number of times, before or after the task ran.
type CancelFunc func()

// Task states. A task moves from pending to exactly one of running or
// cancelled; the CAS decides which of Cancel and the executor wins.
const (
	taskPending int32 = iota
	taskRunning
	taskCancelled
)

// task pairs a callback with its start/cancel arbitration.
type task struct {
	seq   int64
	fn    func()
	state atomic.Int32
}

func newTask(seq int64, fn func()) *task {
	return &task{seq: seq, fn: fn}
}

// start claims the task for execution. Returns false if it was cancelled.
func (t *task) start() bool {
	return t.state.CompareAndSwap(taskPending, taskRunning)
}

// cancel claims the task for cancellation. Returns false if it already
// started or was already cancelled.
func (t *task) cancel() bool {
	return t.state.CompareAndSwap(taskPending, taskCancelled)
}

// run executes the task if it has not been cancelled.
func (t *task) run() bool {
	if !t.start() {
		return false
	}
	t.fn()
	return true
}
