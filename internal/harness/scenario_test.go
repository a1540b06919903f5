package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes body next to an empty net file referenced as
// "net.cue" and returns the scenario path.
func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "net.cue"), []byte("net: {}\n"), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validScenario = `name: s
description: d
specs: [net.cue]
steps:
  - write: { key: a.in, value: "2.5" }
  - step: 2
assertions:
  - type: trace_contains
    key: a.out
`

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, validScenario)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "s", s.Name)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(path), "net.cue")}, s.Specs)
	require.Len(t, s.Steps, 2)
	require.NotNil(t, s.Steps[0].Write)
	assert.Equal(t, "a.in", s.Steps[0].Write.Key)
	assert.Equal(t, "2.5", s.Steps[0].Write.Value)
	assert.Equal(t, 2, s.Steps[1].Step)
	assert.Equal(t, "a.out", s.Assertions[0].Key)
}

func TestLoadScenario_ExampleFiles(t *testing.T) {
	for _, name := range []string{"counter_three_cycles", "ratio_fault"} {
		s := loadTestScenario(t, name)
		assert.Equal(t, name, s.Name)
		assert.NotEmpty(t, s.InstanceID)
	}
}

func TestLoadScenario_WithBasePath(t *testing.T) {
	path := writeScenario(t, validScenario)
	_, err := LoadScenarioWithBasePath(path, t.TempDir())
	assert.ErrorContains(t, err, "spec file not found")
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", validScenario + "assertion: []\n", "failed to parse YAML"},
		{"missing name", `description: d
specs: [net.cue]
steps: [{step: 1}]
assertions: [{type: fault}]
`, "name is required"},
		{"missing steps", `name: s
description: d
specs: [net.cue]
assertions: [{type: fault}]
`, "steps list is required"},
		{"missing spec file", `name: s
description: d
specs: [other.cue]
steps: [{step: 1}]
assertions: [{type: fault}]
`, "spec file not found"},
		{"empty step", `name: s
description: d
specs: [net.cue]
steps: [{}]
assertions: [{type: fault}]
`, "write or step is required"},
		{"write and step", `name: s
description: d
specs: [net.cue]
steps: [{step: 1, write: {key: k, value: 1}}]
assertions: [{type: fault}]
`, "exclusive"},
		{"negative step", `name: s
description: d
specs: [net.cue]
steps: [{step: -1}]
assertions: [{type: fault}]
`, "must be positive"},
		{"bad write value", `name: s
description: d
specs: [net.cue]
steps: [{write: {key: k, value: "nope"}}]
assertions: [{type: fault}]
`, "steps[0].write"},
		{"unknown assertion", `name: s
description: d
specs: [net.cue]
steps: [{step: 1}]
assertions: [{type: eventually}]
`, "unknown assertion type"},
		{"trace_count without count", `name: s
description: d
specs: [net.cue]
steps: [{step: 1}]
assertions: [{type: trace_count, key: k}]
`, "count must be non-negative"},
		{"bad direction", `name: s
description: d
specs: [net.cue]
steps: [{step: 1}]
assertions: [{type: trace_contains, key: k, direction: up}]
`, "invalid direction"},
		{"empty final_state", `name: s
description: d
specs: [net.cue]
steps: [{step: 1}]
assertions: [{type: final_state}]
`, "expect is required"},
		{"trace_order without keys", `name: s
description: d
specs: [net.cue]
steps: [{step: 1}]
assertions: [{type: trace_order, updates: [{value: 1}]}]
`, "needs a key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}
