package trace

// Snapshot is the serialized outcome of one scenario run.
type Snapshot struct {
	Scenario string
	Entries  []Entry
	// Errors holds failed assertion messages; omitted when empty.
	Errors []string
}

// Canonical converts the snapshot into the value shape MarshalCanonical
// accepts.
func (s Snapshot) Canonical() map[string]any {
	entries := make([]any, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = map[string]any{
			"seq":      e.Seq,
			"at":       e.At,
			"observer": e.Observer,
			"event":    e.Event,
		}
	}

	out := map[string]any{
		"scenario": s.Scenario,
		"trace":    entries,
	}
	if len(s.Errors) > 0 {
		errs := make([]any, len(s.Errors))
		for i, e := range s.Errors {
			errs[i] = e
		}
		out["errors"] = errs
	}
	return out
}

// MarshalCanonical serializes the snapshot.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return MarshalCanonical(s.Canonical())
}
