package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rcore", cmd.Use)
	assert.Contains(t, cmd.Long, "cycle-stepped")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "run", "replay", "test", "trace"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestSubcommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"compile", []string{"output"}},
		{"run", []string{"net", "db", "metrics-addr", "cycles", "set"}},
		{"replay", []string{"db", "run"}},
		{"trace", []string{"db", "run", "key", "prefix", "direction", "from", "to", "latest", "limit"}},
		{"test", []string{"update", "filter", "golden-dir"}},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "flag --%s", name)
			}
		})
	}
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "compile", "."})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootLoadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\ndefault_period: 0.5\n"), 0o644))

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "validate", netsDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "✓ 2 net(s) valid")
}

func TestRootRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_levle: debug\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "validate", netsDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "load config")
}

func TestVerboseForcesDebugLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	opts := &RootOptions{Verbose: true}
	opts.logger(buf).Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	opts = &RootOptions{}
	opts.logger(buf).Debug("hidden")
	assert.Empty(t, buf.String())
}
