package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rcore/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledNet is one compiled description with its digest.
type CompiledNet struct {
	Digest string     `json:"digest"`
	Spec   ir.NetSpec `json:"spec"`
}

// CompilationResult holds every compiled net.
type CompilationResult struct {
	Nets []CompiledNet `json:"nets"`
}

// String renders the text summary.
func (r CompilationResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ Compiled %d net(s)\n", len(r.Nets))
	for _, n := range r.Nets {
		fmt.Fprintf(&sb, "\n  %s: %d node(s), %d wire(s), %d channel(s), period %gs\n    digest %s",
			n.Spec.Name, len(n.Spec.Nodes), len(n.Spec.Wires), len(n.Spec.Channels), n.Spec.Period, n.Digest)
	}
	return sb.String()
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE net descriptions",
		Long: `Compile the nets of a CUE package into their JSON description.

Each net is reported with its digest: the hash recorded with every run
and checked again by replay.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled nets to this file")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadNets(specsDir, LoadModeCollectAll, opts.cfg().DefaultPeriod)
	if loadResult == nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(loadErrors[0]), loadErrors[0].Error(), nil)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	if len(loadErrors) > 0 {
		details := make([]CLIError, len(loadErrors))
		for i, err := range loadErrors {
			details[i] = CLIError{Code: loadErrorCode(err), Message: err.Error()}
		}
		message := details[0].Message
		if len(details) > 1 {
			message = fmt.Sprintf("%d errors, first: %s", len(details), message)
		}
		return formatter.Fail(ExitCommandError, details[0].Code, message, details)
	}

	result := CompilationResult{Nets: make([]CompiledNet, 0, len(loadResult.Nets))}
	for _, spec := range loadResult.Nets {
		digest, err := spec.Digest()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		formatter.VerboseLog("Compiled net %s (%s)", spec.Name, digest)
		result.Nets = append(result.Nets, CompiledNet{Digest: digest, Spec: spec})
	}

	if opts.Output != "" {
		if err := writeNets(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if opts.Output != "" {
		formatter.Textf("\nWrote %d net(s) to %s", len(result.Nets), opts.Output)
	}
	return nil
}

func writeNets(result CompilationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
