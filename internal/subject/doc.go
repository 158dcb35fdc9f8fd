// Package subject provides multicast hubs that are both an Observer and an
// Observable.
//
// A Subject fans one upstream stream out to a changing set of downstream
// observers. A Behavior additionally remembers the latest value and the
// terminal, and catches late subscribers up with them.
//
// Registry discipline: the observer registry is guarded by a sync.RWMutex.
// Fan-out takes a snapshot under the lock and calls observers after
// releasing it, so an observer may unsubscribe (or subscribe) from inside
// its own callback without deadlocking. Each registered observer is wrapped
// in an observer.Safe, which keeps per-observer ordering and makes delivery
// after termination a silent drop.
//
// Upstream must respect the observer protocol: OnNext and OnTerminal calls
// are not concurrent with each other, and OnTerminal is called at most
// once. Violations panic with *observer.ProtocolError. Notify is the
// lenient entry point that drops events after termination instead.
//
// Late subscription: a Subject that already terminated registers nothing
// and returns an already-disposed Subscription. A Behavior that already
// terminated delivers only its remembered terminal.
package subject
