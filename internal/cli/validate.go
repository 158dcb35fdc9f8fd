package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rxcore/internal/harness"
)

// FileValidation is the validation outcome of one scenario file.
type FileValidation struct {
	Path     string `json:"path"`
	Scenario string `json:"scenario,omitempty"`
	Valid    bool   `json:"valid"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// String renders the result for text output.
func (r ValidationResult) String() string {
	var buf strings.Builder
	for _, f := range r.Files {
		if f.Valid {
			fmt.Fprintf(&buf, "✓ %s (%s)\n", f.Path, f.Scenario)
			continue
		}
		fmt.Fprintf(&buf, "✗ %s\n  %s: %s\n", f.Path, f.Code, f.Error)
	}
	return buf.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Parse and validate scenarios without running them",
		Long: `Parse scenario files and check their structure: exactly one kind per
step, known sources and observers, valid durations and assertion types.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	missing := 0

	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		fv := FileValidation{Path: path}
		scenario, err := harness.LoadScenario(path)
		switch {
		case err == nil:
			fv.Valid = true
			fv.Scenario = scenario.Name
		case errors.Is(err, fs.ErrNotExist):
			fv.Code, fv.Error = ErrCodeNotFound, err.Error()
			missing++
		case errors.Is(err, harness.ErrInvalidScenario):
			fv.Code, fv.Error = ErrCodeInvalid, err.Error()
		default:
			fv.Code, fv.Error = ErrCodeLoadFailed, err.Error()
		}

		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if result.Valid {
		return formatter.Success(result)
	}

	msg := fmt.Sprintf("%d of %d scenario(s) invalid", countInvalid(result.Files), len(result.Files))
	if err := formatter.Failure(ErrCodeInvalid, msg, result); err != nil {
		return err
	}
	if missing == len(paths) {
		return NewExitError(ExitCommandError, msg)
	}
	return NewExitError(ExitFailure, msg)
}

func countInvalid(files []FileValidation) int {
	n := 0
	for _, f := range files {
		if !f.Valid {
			n++
		}
	}
	return n
}
