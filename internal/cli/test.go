package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rcore/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // "" means golden/ next to each scenario
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or "none"
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// String renders the text form.
func (r TestResult) String() string {
	if r.Total == 0 {
		return "No scenarios found."
	}
	var sb strings.Builder
	for _, s := range r.Scenarios {
		if s.Pass {
			suffix := ""
			if s.Golden == "updated" {
				suffix = " (golden updated)"
			}
			fmt.Fprintf(&sb, "✓ %s%s\n", s.Name, suffix)
			continue
		}
		fmt.Fprintf(&sb, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			for _, line := range strings.Split(e, "\n") {
				fmt.Fprintf(&sb, "  %s\n", line)
			}
		}
	}
	fmt.Fprintf(&sb, "\n%d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	return sb.String()
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>...",
		Short: "Run scenario tests",
		Long: `Run YAML scenarios against their nets and check their assertions.

A scenario whose golden file exists must also reproduce that trace
exactly. Golden files are named after the scenario and live in golden/
next to the scenario file unless --golden-dir is set.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  rcore test ./scenarios
  rcore test ./scenarios/ratio_fault.yaml
  rcore test ./scenarios --filter "ratio_*"
  rcore test ./scenarios --golden-dir ./golden --update`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "directory of golden files")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var files []string
	for _, path := range paths {
		found, err := findScenarioFiles(path, opts.Filter)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		files = append(files, found...)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr := runScenario(opts, file)
		formatter.VerboseLog("%s: pass=%t golden=%s", file, sr.Pass, sr.Golden)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if err := formatter.Success(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles returns path itself when it is a file, or the YAML
// files under it when it is a directory.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenario executes a single scenario file.
func runScenario(opts *TestOptions, file string) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	golden, err := checkGolden(opts, file, scenario, result)
	if err != nil {
		sr.Errors = append(sr.Errors, err.Error())
	}
	sr.Golden = golden
	sr.Pass = result.Pass && err == nil
	return sr
}

// goldenPath returns the golden file of a scenario.
func (o *TestOptions) goldenPath(file, name string) string {
	dir := o.GoldenDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(file), "golden")
	}
	return filepath.Join(dir, name+".golden")
}

// checkGolden compares the trace with the golden file, or rewrites it with
// --update. Scenarios without a golden file rely on assertions alone.
func checkGolden(opts *TestOptions, file string, scenario *harness.Scenario, result *harness.Result) (string, error) {
	snapshot := harness.TraceSnapshot{
		ScenarioName: scenario.Name,
		InstanceID:   scenario.InstanceID,
		Trace:        result.Trace,
	}
	current, err := snapshot.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal trace: %w", err)
	}

	path := opts.goldenPath(file, scenario.Name)
	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, current, 0o644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return "updated", nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "none", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, current) {
		return "", fmt.Errorf("trace does not match %s (run with --update to regenerate)", path)
	}
	return "match", nil
}
