// Package subscription implements the cancellation handle returned by
// Observable.Subscribe.
//
// A Subscription is Live until its teardown runs and Disposed afterwards.
// Disposal is irreversible and idempotent: Unsubscribe and Close share one
// guarded path, so whichever trigger arrives first runs the teardown and
// every later call is a no-op.
//
// Go has no destructors. Scope-exit disposal is expressed with defer:
//
//	sub := source.Subscribe(obs)
//	defer sub.Unsubscribe()
//
// If the Subscription guards an observer that has not terminated when
// disposal runs, a synthetic Cancelled terminal is delivered to it after
// the teardown actions, before Unsubscribe returns.
package subscription
