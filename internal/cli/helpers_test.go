package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var netsDir = filepath.Join("testdata", "nets")

// executeCmd runs a subcommand built by newCmd with its own options and
// returns stdout, stderr and the command error.
func executeCmd(t *testing.T, format string, newCmd func(*RootOptions) *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newCmd(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decode unmarshals a JSON response and its data payload.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.CLIResponse
}

// writeNetsDir writes a CUE package with one file and returns its directory.
func writeNetsDir(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nets.cue"), []byte(src), 0o644))
	return dir
}

// recordRun runs net for cycles into a fresh database and returns the
// database path and the run ID.
func recordRun(t *testing.T, net string, cycles int, sets ...string) (string, string, error) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	args := []string{netsDir, "--net", net, "--cycles", strconv.Itoa(cycles), "--db", db}
	for _, s := range sets {
		args = append(args, "--set", s)
	}
	out, _, err := executeCmd(t, "json", NewRunCommand, args...)

	var summary RunSummary
	decode(t, out, &summary)
	require.Len(t, summary.Nets, 1)
	return db, summary.Nets[0].ID, err
}
