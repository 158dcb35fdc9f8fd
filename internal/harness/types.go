package harness

import "github.com/roach88/rxcore/internal/trace"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace lists every delivered event in delivery order.
	Trace []trace.Entry `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Dropped counts events pushed into subjects that had already
	// terminated.
	Dropped int `json:"dropped"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []trace.Entry{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot returns the serializable form of r.
func (r *Result) Snapshot(name string) trace.Snapshot {
	return trace.Snapshot{Scenario: name, Entries: r.Trace}
}
