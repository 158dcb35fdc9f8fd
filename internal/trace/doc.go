// Package trace records what observers received and serializes the record
// as canonical JSON.
//
// A Log is shared by every observer in a scenario; each entry carries a
// global sequence number, the virtual time it was recorded at, the
// observer name and the event rendered as a string ("next:1", "completed",
// "error:boom", "cancelled").
//
// MarshalCanonical produces byte-identical output for equal inputs:
// object keys sorted by UTF-16 code units, strings NFC-normalized, no HTML
// escaping. Floats and null are rejected so a trace never depends on
// number formatting.
package trace
