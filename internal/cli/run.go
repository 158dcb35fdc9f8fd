package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rxcore/internal/harness"
	"github.com/roach88/rxcore/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// TraceOut, if set, receives the canonical JSON trace.
	TraceOut string
}

// RunOutput is the result of one scenario run.
type RunOutput struct {
	Scenario string        `json:"scenario"`
	Pass     bool          `json:"pass"`
	Trace    []trace.Entry `json:"trace"`
	Errors   []string      `json:"errors,omitempty"`
	Dropped  int           `json:"dropped"`
}

// String renders the run for text output.
func (o RunOutput) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Scenario: %s\n", o.Scenario)
	for _, e := range o.Trace {
		fmt.Fprintf(&buf, "%4d  %6dms  %-12s %s\n", e.Seq, e.At, e.Observer, e.Event)
	}
	if o.Dropped > 0 {
		fmt.Fprintf(&buf, "(%d event(s) dropped after terminal)\n", o.Dropped)
	}
	for _, e := range o.Errors {
		fmt.Fprintf(&buf, "  %s\n", e)
	}
	if o.Pass {
		buf.WriteString("✓ PASS\n")
	} else {
		buf.WriteString("✗ FAIL\n")
	}
	return buf.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario and print its trace",
		Long: `Run a scenario file (.yaml, .yml or .cue) on virtual time and print
every event the recording observers received.

Exit codes:
  0 - All assertions held
  1 - One or more assertions failed
  2 - Command error (missing file, invalid scenario)

Example:
  rxcore run ./scenarios/behavior_replay.yaml
  rxcore run ./scenarios/delay.cue --format json --trace-out trace.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TraceOut, "trace-out", "", "write the canonical JSON trace to this file")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		code := ErrCodeLoadFailed
		switch {
		case errors.Is(err, fs.ErrNotExist):
			code = ErrCodeNotFound
		case errors.Is(err, harness.ErrInvalidScenario):
			code = ErrCodeInvalid
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	logger.Info("running scenario", "scenario", scenario.Name, "path", path)
	result, err := harness.RunWithLogger(scenario, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	if opts.TraceOut != "" {
		data, err := result.Snapshot(scenario.Name).MarshalCanonical()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal trace", err)
		}
		if err := os.WriteFile(opts.TraceOut, data, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write trace", err)
		}
		formatter.VerboseLog("Trace written to %s", opts.TraceOut)
	}

	out := RunOutput{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Trace:    result.Trace,
		Errors:   result.Errors,
		Dropped:  result.Dropped,
	}

	if !result.Pass {
		msg := fmt.Sprintf("%d assertion(s) failed", len(result.Errors))
		if err := formatter.Failure(ErrCodeAssertion, msg, out); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(out)
}
