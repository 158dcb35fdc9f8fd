// Package observer defines the consuming side of the event protocol.
//
// An Observer receives zero or more values through OnNext followed by
// exactly one Terminal through OnTerminal. After OnTerminal the observer
// is considered consumed and must not be used again.
//
// # Enforcement
//
// Observer implementations supplied by users are not trusted to enforce
// the protocol themselves. Everything the engine delivers to a user
// observer flows through Safe, which:
//
//   - records a per-observer terminated flag, set when a terminal is accepted
//   - serializes delivery so at most one goroutine runs user code at a time
//   - never holds its lock while user code runs (reentrant calls queue up)
//   - panics with a *ProtocolError on OnNext/OnTerminal after a terminal
//
// The non-panicking TryNext/TryTerminal variants are for callers that may
// legitimately race with termination (subject fan-out, synthetic
// cancellation, delayed deliveries).
package observer
