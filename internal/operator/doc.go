// Package operator provides Observables derived from other Observables.
//
// Delay is the one operator here that introduces concurrency: it hands
// values to a scheduler.Scheduler and re-derives upstream order when the
// scheduled tasks run. Map and MapErr are synchronous re-mappings.
package operator
