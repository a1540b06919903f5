package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rcore/internal/ir"
)

// Scenario defines a conformance test scenario.
// Scenarios drive one net through host writes and cycles and assert on the
// resulting trace and final channel values.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE net descriptions to compile.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// Net names the net to run. May be omitted when the specs describe
	// exactly one net.
	Net string `yaml:"net,omitempty"`

	// InstanceID is an optional fixed instance ID for deterministic tests.
	// If empty, defaults to "test-net-default".
	InstanceID string `yaml:"instance_id,omitempty"`

	// Steps drive the net in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, fault
	Assertions []Assertion `yaml:"assertions"`
}

// Step is either a host write or a number of cycles to run.
type Step struct {
	// Write queues a value on an in channel. It applies at the next cycle.
	Write *Write `yaml:"write,omitempty"`

	// Step runs this many cycles. Stepping stops at a fault.
	Step int `yaml:"step,omitempty"`
}

// Write is a host write to an in channel.
type Write struct {
	Key string `yaml:"key"`

	// Value is a YAML scalar or list, or a string in the netcomm wire
	// form ("2.5", "[1,2]").
	Value any `yaml:"value"`
}

// UpdateMatch selects trace updates. Unset fields match anything.
type UpdateMatch struct {
	Key       string `yaml:"key,omitempty"`
	Value     any    `yaml:"value,omitempty"`
	Cycle     *int64 `yaml:"cycle,omitempty"`
	Direction string `yaml:"direction,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an update matching the inline fields exists
	// - "trace_order": Updates appear in order
	// - "trace_count": Key is updated exactly Count times
	// - "final_state": channels hold the Expect values
	// - "fault": the net faulted (at Node and Cycle when given)
	Type string `yaml:"type"`

	// Inline match used by trace_contains and trace_count (key), and by
	// fault (cycle).
	UpdateMatch `yaml:",inline"`

	// Updates is the expected order (used by trace_order).
	Updates []UpdateMatch `yaml:"updates,omitempty"`

	// Count is the expected number of updates (used by trace_count).
	Count *int `yaml:"count,omitempty"`

	// Expect maps channel keys to their expected last value (used by
	// final_state). Subset match - only listed channels are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Node is the expected faulting node (used by fault).
	Node string `yaml:"node,omitempty"`

	// Message must be contained in the fault message (used by fault).
	Message string `yaml:"message,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertFault         = "fault"
)

// LoadScenario reads and parses a scenario YAML file, resolving spec paths
// relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or validating
// spec paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch {
	case step.Write != nil && step.Step != 0:
		return fmt.Errorf("steps[%d]: write and step are exclusive", index)
	case step.Write != nil:
		if step.Write.Key == "" {
			return fmt.Errorf("steps[%d].write: key is required", index)
		}
		if _, err := wireValue(step.Write.Value); err != nil {
			return fmt.Errorf("steps[%d].write: %w", index, err)
		}
	case step.Step < 0:
		return fmt.Errorf("steps[%d]: step must be positive, got %d", index, step.Step)
	case step.Step == 0:
		return fmt.Errorf("steps[%d]: write or step is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for trace_contains", index)
		}
		return validateMatch(index, a.UpdateMatch)
	case AssertTraceOrder:
		if len(a.Updates) == 0 {
			return fmt.Errorf("assertions[%d]: updates list is required for trace_order", index)
		}
		for _, m := range a.Updates {
			if m.Key == "" {
				return fmt.Errorf("assertions[%d]: every trace_order update needs a key", index)
			}
			if err := validateMatch(index, m); err != nil {
				return err
			}
		}
	case AssertTraceCount:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for key, v := range a.Expect {
			if _, err := wireValue(v); err != nil {
				return fmt.Errorf("assertions[%d]: expect %s: %w", index, key, err)
			}
		}
	case AssertFault:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validateMatch(index int, m UpdateMatch) error {
	if m.Direction != "" && !ir.ValidDirections[ir.Direction(m.Direction)] {
		return fmt.Errorf("assertions[%d]: invalid direction %q", index, m.Direction)
	}
	if m.Value != nil {
		if _, err := wireValue(m.Value); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}
	return nil
}

// wireValue converts a YAML value to a wire value. Strings are read in the
// netcomm string form.
func wireValue(v any) (ir.Value, error) {
	if s, ok := v.(string); ok {
		return ir.ParseAny(s)
	}
	return ir.FromAny(v)
}
