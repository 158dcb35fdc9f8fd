package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rxcore/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes the observer's full log to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Observer string   // Observer the assertion is about
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Log      []string // Everything the observer received
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s failed for %s: expected %s, got %s", e.Type, e.Observer, e.Expected, e.Actual)
	if len(e.Log) > 0 {
		fmt.Fprintf(&buf, " (log: %s)", strings.Join(e.Log, ", "))
	}
	return buf.String()
}

func evaluateAssertion(log *trace.Log, a Assertion) error {
	got := log.For(a.Observer)

	switch a.Type {
	case AssertLogEquals:
		return assertLogEquals(got, a)
	case AssertTerminalIs:
		return assertTerminalIs(got, a)
	case AssertValueCount:
		return assertValueCount(got, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertLogEquals(got []string, a Assertion) error {
	if slices.Equal(got, a.Log) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLogEquals,
		Observer: a.Observer,
		Expected: "[" + strings.Join(a.Log, ", ") + "]",
		Actual:   "[" + strings.Join(got, ", ") + "]",
	}
}

func assertTerminalIs(got []string, a Assertion) error {
	actual := TerminalNone
	if n := len(got); n > 0 && !strings.HasPrefix(got[n-1], "next:") {
		actual = got[n-1]
	}
	if actual == a.Terminal {
		return nil
	}
	return &AssertionError{
		Type:     AssertTerminalIs,
		Observer: a.Observer,
		Expected: a.Terminal,
		Actual:   actual,
		Log:      got,
	}
}

func assertValueCount(got []string, a Assertion) error {
	count := 0
	for _, ev := range got {
		if strings.HasPrefix(ev, "next:") {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertValueCount,
		Observer: a.Observer,
		Expected: fmt.Sprintf("%d values", a.Count),
		Actual:   fmt.Sprintf("%d values", count),
		Log:      got,
	}
}
