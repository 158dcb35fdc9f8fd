// Package scheduler provides the timing abstraction used by time-based
// operators.
//
// A Scheduler runs a task after an optional delay on some execution
// context and returns a CancelFunc. Calling the CancelFunc before the task
// starts guarantees it never starts; calling it afterwards (or twice) is a
// no-op. No guarantee is made about a task that is already running.
//
// Implementations:
//
//   - Goroutine: every task runs on its own goroutine, delays use
//     time.AfterFunc. Tasks run concurrently with each other.
//   - Serial: a single-writer loop. Ready tasks run one at a time in FIFO
//     order on the goroutine that called Run.
//   - Virtual: manual virtual time for deterministic tests and scenario
//     scripts. Tasks run only inside Advance.
//
// Schedulers are plain values with no process-wide state; inject the one
// you need.
package scheduler
