// Package event defines the data model carried between observables and
// observers.
//
// An Event is either a Next value or a Terminal. A Terminal is one of
// Completed, Error or Cancelled. Within one subscription at most one
// Terminal is ever delivered and it is always the last event.
//
// The package is pure data: no locking, no delivery logic. The mapping
// helpers (MapValue, MapError, MapTerminal) preserve terminal identity,
// so mapping a Next never touches terminal variants and vice versa.
package event
