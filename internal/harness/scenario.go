package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of steps plus assertions on what the
// recording observers received.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what the scenario shows.
	Description string `yaml:"description" json:"description"`

	// Steps run in order.
	Steps []Step `yaml:"steps" json:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions" json:"assertions"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	Subject     *SubjectStep     `yaml:"subject,omitempty" json:"subject,omitempty"`
	Behavior    *BehaviorStep    `yaml:"behavior,omitempty" json:"behavior,omitempty"`
	Delay       *DelayStep       `yaml:"delay,omitempty" json:"delay,omitempty"`
	Map         *MapStep         `yaml:"map,omitempty" json:"map,omitempty"`
	Subscribe   *SubscribeStep   `yaml:"subscribe,omitempty" json:"subscribe,omitempty"`
	Next        *NextStep        `yaml:"next,omitempty" json:"next,omitempty"`
	Complete    *CompleteStep    `yaml:"complete,omitempty" json:"complete,omitempty"`
	Error       *ErrorStep       `yaml:"error,omitempty" json:"error,omitempty"`
	Unsubscribe *UnsubscribeStep `yaml:"unsubscribe,omitempty" json:"unsubscribe,omitempty"`
	Advance     *AdvanceStep     `yaml:"advance,omitempty" json:"advance,omitempty"`
}

// SubjectStep creates a plain subject.
type SubjectStep struct {
	Name string `yaml:"name" json:"name"`
}

// BehaviorStep creates a behavior subject seeded with Seed.
type BehaviorStep struct {
	Name string `yaml:"name" json:"name"`
	Seed string `yaml:"seed" json:"seed"`
}

// DelayStep creates a source that delays Source by By.
type DelayStep struct {
	Name   string `yaml:"name" json:"name"`
	Source string `yaml:"source" json:"source"`
	By     string `yaml:"by" json:"by"`
}

// MapStep creates a source that prefixes every value of Source.
type MapStep struct {
	Name   string `yaml:"name" json:"name"`
	Source string `yaml:"source" json:"source"`
	Prefix string `yaml:"prefix" json:"prefix"`
}

// SubscribeStep attaches a recording observer to a source.
type SubscribeStep struct {
	Observer string `yaml:"observer" json:"observer"`
	Source   string `yaml:"source" json:"source"`
}

// NextStep pushes a value into a subject.
type NextStep struct {
	Target string `yaml:"target" json:"target"`
	Value  string `yaml:"value" json:"value"`
}

// CompleteStep completes a subject.
type CompleteStep struct {
	Target string `yaml:"target" json:"target"`
}

// ErrorStep fails a subject.
type ErrorStep struct {
	Target string `yaml:"target" json:"target"`
	Error  string `yaml:"error" json:"error"`
}

// UnsubscribeStep disposes the subscription of a recording observer.
type UnsubscribeStep struct {
	Observer string `yaml:"observer" json:"observer"`
}

// AdvanceStep moves virtual time forward.
type AdvanceStep struct {
	By string `yaml:"by" json:"by"`
}

// Assertion checks what one observer received.
type Assertion struct {
	// Type is one of log_equals, terminal_is, value_count.
	Type string `yaml:"type" json:"type"`

	// Observer names the recording observer.
	Observer string `yaml:"observer" json:"observer"`

	// Log is the expected event log (log_equals).
	Log []string `yaml:"log,omitempty" json:"log,omitempty"`

	// Terminal is the expected terminal (terminal_is).
	Terminal string `yaml:"terminal,omitempty" json:"terminal,omitempty"`

	// Count is the expected number of values (value_count).
	Count int `yaml:"count,omitempty" json:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLogEquals  = "log_equals"
	AssertTerminalIs = "terminal_is"
	AssertValueCount = "value_count"
)

// TerminalNone is the terminal_is value for an observer that has not
// terminated.
const TerminalNone = "none"

// ErrInvalidScenario wraps every structural validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// LoadScenario reads and parses a scenario file. The format is chosen by
// extension: .cue is CUE, anything else is YAML.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (YAML), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	if filepath.Ext(path) == ".cue" {
		scenario, err = ParseCUE(data, path)
	} else {
		scenario, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return scenario, nil
}

// ParseYAML decodes a YAML scenario, rejecting unknown fields.
// It does not validate.
func ParseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// ParseCUE evaluates a CUE scenario and decodes it. filename is used in
// error positions only. It does not validate.
func ParseCUE(data []byte, filename string) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE %s: %w", filename, err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CUE %s: %w", filename, err)
	}

	var scenario Scenario
	if err := v.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE %s: %w", filename, err)
	}
	return &scenario, nil
}

// Validate checks a scenario without running it.
func Validate(s *Scenario) error {
	return validateScenario(s)
}

// validateScenario checks required fields and name references.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	sources := make(map[string]bool) // name -> can receive events
	observers := make(map[string]bool)

	declare := func(i int, name string, subject bool) error {
		if name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if _, dup := sources[name]; dup {
			return fmt.Errorf("steps[%d]: source %q already defined", i, name)
		}
		sources[name] = subject
		return nil
	}
	source := func(i int, name string) error {
		if _, ok := sources[name]; !ok {
			return fmt.Errorf("steps[%d]: unknown source %q", i, name)
		}
		return nil
	}
	target := func(i int, name string) error {
		subject, ok := sources[name]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown target %q", i, name)
		}
		if !subject {
			return fmt.Errorf("steps[%d]: target %q is not a subject", i, name)
		}
		return nil
	}

	for i, step := range s.Steps {
		if n := step.kinds(); n != 1 {
			return fmt.Errorf("steps[%d]: exactly one step kind must be set, got %d", i, n)
		}

		var err error
		switch {
		case step.Subject != nil:
			err = declare(i, step.Subject.Name, true)
		case step.Behavior != nil:
			err = declare(i, step.Behavior.Name, true)
		case step.Delay != nil:
			if err = source(i, step.Delay.Source); err == nil {
				if _, perr := parseDuration(step.Delay.By); perr != nil {
					err = fmt.Errorf("steps[%d]: delay.by: %w", i, perr)
				} else {
					err = declare(i, step.Delay.Name, false)
				}
			}
		case step.Map != nil:
			if err = source(i, step.Map.Source); err == nil {
				err = declare(i, step.Map.Name, false)
			}
		case step.Subscribe != nil:
			if step.Subscribe.Observer == "" {
				err = fmt.Errorf("steps[%d]: subscribe.observer is required", i)
			} else if observers[step.Subscribe.Observer] {
				err = fmt.Errorf("steps[%d]: observer %q already subscribed", i, step.Subscribe.Observer)
			} else if err = source(i, step.Subscribe.Source); err == nil {
				observers[step.Subscribe.Observer] = true
			}
		case step.Next != nil:
			err = target(i, step.Next.Target)
		case step.Complete != nil:
			err = target(i, step.Complete.Target)
		case step.Error != nil:
			err = target(i, step.Error.Target)
		case step.Unsubscribe != nil:
			if !observers[step.Unsubscribe.Observer] {
				err = fmt.Errorf("steps[%d]: unknown observer %q", i, step.Unsubscribe.Observer)
			}
		case step.Advance != nil:
			if _, perr := parseDuration(step.Advance.By); perr != nil {
				err = fmt.Errorf("steps[%d]: advance.by: %w", i, perr)
			}
		}
		if err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, observers); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, observers map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if !observers[a.Observer] {
		return fmt.Errorf("assertions[%d]: unknown observer %q", index, a.Observer)
	}

	switch a.Type {
	case AssertLogEquals:
		if a.Log == nil {
			return fmt.Errorf("assertions[%d]: log is required for log_equals", index)
		}
	case AssertTerminalIs:
		if a.Terminal == "" {
			return fmt.Errorf("assertions[%d]: terminal is required for terminal_is", index)
		}
	case AssertValueCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for value_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func (s Step) kinds() int {
	n := 0
	for _, set := range []bool{
		s.Subject != nil, s.Behavior != nil, s.Delay != nil, s.Map != nil,
		s.Subscribe != nil, s.Next != nil, s.Complete != nil, s.Error != nil,
		s.Unsubscribe != nil, s.Advance != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// parseDuration parses a non-negative Go duration string.
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be non-negative: %s", s)
	}
	return d, nil
}
