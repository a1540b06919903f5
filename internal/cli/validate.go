package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rcore/internal/compiler"
	"github.com/roach88/rcore/internal/prim"
)

// NetReport is the validation outcome of one net.
type NetReport struct {
	Name   string                     `json:"name"`
	Nodes  int                        `json:"nodes"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
	Loops  []compiler.CycleReport     `json:"loops,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Nets       []NetReport                `json:"nets"`
	LoadErrors []compiler.ValidationError `json:"load_errors,omitempty"`
}

// String renders the text form.
func (r ValidationResult) String() string {
	var sb strings.Builder
	if r.Valid {
		fmt.Fprintf(&sb, "✓ %d net(s) valid", len(r.Nets))
	} else {
		sb.WriteString("✗ Validation failed")
	}
	for _, e := range r.LoadErrors {
		fmt.Fprintf(&sb, "\n  %s", e.Error())
	}
	for _, n := range r.Nets {
		fmt.Fprintf(&sb, "\n  %s (%d nodes)", n.Name, n.Nodes)
		for _, e := range n.Errors {
			fmt.Fprintf(&sb, "\n    %s", e.Error())
		}
		for _, l := range n.Loops {
			fmt.Fprintf(&sb, "\n    %s: %s", l.Level, l.Message)
		}
	}
	return sb.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate net descriptions without running them",
		Long: `Compile every net in a CUE package and check it against the
primitive library: node kinds, wiring, channel bindings and feedback
loops. Loops closed through a delay are reported as info.

Exit codes:
  0 - All nets valid
  1 - At least one net is invalid
  2 - Specs could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadNets(specsDir, LoadModeCollectAll, opts.cfg().DefaultPeriod)
	if loadResult == nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(loadErrors[0]), loadErrors[0].Error(), nil)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	result := ValidationResult{Valid: len(loadErrors) == 0}
	for _, err := range loadErrors {
		result.LoadErrors = append(result.LoadErrors, compiler.ValidationError{
			Field:   "load",
			Message: err.Error(),
			Code:    loadErrorCode(err),
		})
	}

	reg := prim.NewRegistry()
	for _, spec := range loadResult.Nets {
		report := NetReport{
			Name:   spec.Name,
			Nodes:  len(spec.Nodes),
			Errors: compiler.Validate(spec, reg),
			Loops:  compiler.AnalyzeCycles(spec),
		}
		if len(report.Errors) > 0 {
			result.Valid = false
		}
		formatter.VerboseLog("net %s: %d error(s), %d loop(s)", spec.Name, len(report.Errors), len(report.Loops))
		result.Nets = append(result.Nets, report)
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}
