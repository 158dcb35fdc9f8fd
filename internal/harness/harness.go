package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observable"
	"github.com/roach88/rxcore/internal/operator"
	"github.com/roach88/rxcore/internal/scheduler"
	"github.com/roach88/rxcore/internal/subject"
	"github.com/roach88/rxcore/internal/subscription"
	"github.com/roach88/rxcore/internal/testutil"
	"github.com/roach88/rxcore/internal/trace"
)

// notifier is the input side of a subject.
type notifier interface {
	Notify(ev event.Event[string, string]) bool
}

// node is a named stream in a scenario. in is nil for derived sources.
type node struct {
	out observable.Observable[string, string]
	in  notifier
}

// runner holds the state of one scenario execution.
type runner struct {
	sched  *scheduler.Virtual
	log    *trace.Log
	ids    *testutil.SequentialIDGenerator
	logger *slog.Logger
	result *Result

	nodes map[string]node
	subs  map[string]*subscription.Subscription
}

// Run executes a scenario with a discard logger.
func Run(s *Scenario) (*Result, error) {
	return RunWithLogger(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger executes a scenario, logging engine activity to logger.
//
// Execution flow:
//  1. Validate the scenario
//  2. Execute steps in order on a fresh virtual scheduler
//  3. Evaluate assertions against the trace
//
// An error is returned only if the scenario cannot run. Assertion failures
// are reported in Result.Errors.
func RunWithLogger(s *Scenario, logger *slog.Logger) (*Result, error) {
	if err := validateScenario(s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	sched := scheduler.NewVirtual()
	r := &runner{
		sched:  sched,
		log:    trace.NewLog(sched.Now),
		ids:    testutil.NewSequentialIDGenerator("sub"),
		logger: logger,
		result: NewResult(),
		nodes:  make(map[string]node),
		subs:   make(map[string]*subscription.Subscription),
	}

	logger.Debug("scenario starting", "scenario", s.Name, "steps", len(s.Steps))

	for i, step := range s.Steps {
		if err := r.execute(step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	r.result.Trace = r.log.Entries()

	for i, a := range s.Assertions {
		if err := evaluateAssertion(r.log, a); err != nil {
			r.result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	logger.Debug("scenario finished",
		"scenario", s.Name,
		"events", len(r.result.Trace),
		"pass", r.result.Pass,
	)
	return r.result, nil
}

func (r *runner) execute(step Step) error {
	switch {
	case step.Subject != nil:
		s := subject.New[string, string](
			subject.WithIDGenerator[string](r.ids),
			subject.WithLogger[string](r.logger),
		)
		r.nodes[step.Subject.Name] = node{out: s, in: s}

	case step.Behavior != nil:
		b := subject.NewBehavior[string, string](step.Behavior.Seed,
			subject.WithIDGenerator[string](r.ids),
			subject.WithLogger[string](r.logger),
		)
		r.nodes[step.Behavior.Name] = node{out: b, in: b}

	case step.Delay != nil:
		d, err := parseDuration(step.Delay.By)
		if err != nil {
			return err
		}
		src := r.nodes[step.Delay.Source].out
		r.nodes[step.Delay.Name] = node{
			out: operator.Delay(src, d, r.sched, operator.WithDelayLogger(r.logger)),
		}

	case step.Map != nil:
		prefix := step.Map.Prefix
		src := r.nodes[step.Map.Source].out
		r.nodes[step.Map.Name] = node{
			out: operator.Map(src, func(v string) string { return prefix + v }),
		}

	case step.Subscribe != nil:
		name := step.Subscribe.Observer
		src := r.nodes[step.Subscribe.Source].out
		r.subs[name] = src.Subscribe(trace.Observe[string, string](r.log, name))

	case step.Next != nil:
		r.notify(step.Next.Target, event.Next[string, string](step.Next.Value))

	case step.Complete != nil:
		r.notify(step.Complete.Target, event.Terminated[string](event.Completed[string]()))

	case step.Error != nil:
		r.notify(step.Error.Target, event.Terminated[string](event.Errored(step.Error.Error)))

	case step.Unsubscribe != nil:
		r.subs[step.Unsubscribe.Observer].Unsubscribe()

	case step.Advance != nil:
		d, err := parseDuration(step.Advance.By)
		if err != nil {
			return err
		}
		ran := r.sched.Advance(d)
		r.logger.Debug("advanced virtual time", "by", d, "now", r.sched.Now(), "tasks", ran)

	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func (r *runner) notify(target string, ev event.Event[string, string]) {
	if !r.nodes[target].in.Notify(ev) {
		r.result.Dropped++
		r.logger.Debug("event dropped: subject terminated",
			"target", target,
			"event", ev.String(),
		)
	}
}

// String renders the trace one entry per line, for text output.
func (r *Result) String() string {
	var buf strings.Builder
	for _, e := range r.Trace {
		fmt.Fprintf(&buf, "%4d  %6dms  %-12s %s\n", e.Seq, e.At, e.Observer, e.Event)
	}
	return buf.String()
}
