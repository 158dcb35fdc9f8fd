// Package harness runs scripted scenarios against subjects, behavior
// subjects and operator pipelines on a virtual-time scheduler.
//
// # Scenario Format
//
// Scenarios are YAML (.yaml, .yml) or CUE (.cue) files:
//
//	name: behavior_replay
//	description: "late subscriber receives the snapshot"
//	steps:
//	  - behavior: { name: b, seed: "0" }
//	  - subscribe: { observer: A, source: b }
//	  - next: { target: b, value: "1" }
//	  - subscribe: { observer: B, source: b }
//	  - complete: { target: b }
//	assertions:
//	  - type: log_equals
//	    observer: A
//	    log: ["next:0", "next:1", "completed"]
//
// Each step sets exactly one of:
//
//   - subject: { name }                  create a plain subject
//   - behavior: { name, seed }           create a behavior subject
//   - delay: { name, source, by }        delay a source by a duration ("50ms")
//   - map: { name, source, prefix }      prefix every value of a source
//   - subscribe: { observer, source }    attach a named recording observer
//   - next: { target, value }            push a value into a subject
//   - complete: { target }               complete a subject
//   - error: { target, error }           fail a subject
//   - unsubscribe: { observer }          dispose an observer's subscription
//   - advance: { by }                    move virtual time forward
//
// Values and errors are strings. Pushing into a subject that already
// terminated is dropped, not an error.
//
// # Assertion Types
//
//   - log_equals: the observer received exactly log
//   - terminal_is: the observer's last event is terminal ("completed",
//     "error:<msg>", "cancelled"), or "none" if it has not terminated
//   - value_count: the observer received count values
//
// # Deterministic Testing
//
// Every run uses a fresh scheduler.Virtual starting at zero, sequential
// subscription IDs and a discard logger, so two runs of one scenario
// produce byte-identical canonical traces. RunWithGolden compares that
// trace to testdata/golden/<name>.golden.
package harness
