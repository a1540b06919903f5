package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/queryir"
	"github.com/roach88/rcore/internal/store"
)

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRunStepsCycles(t *testing.T) {
	db, id, err := recordRun(t, "counter", 3)
	require.NoError(t, err)

	st := openStore(t, db)
	run, err := st.ReadRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "counter", run.Net)

	ticks, err := st.ReadChannel(context.Background(), id, "counter.tick")
	require.NoError(t, err)
	require.Len(t, ticks, 3)
	for i, u := range ticks {
		assert.Equal(t, int64(i), u.Cycle)
		assert.Equal(t, ir.Int(int64(i)), u.Value)
	}
}

func TestRunTextSummary(t *testing.T) {
	out, _, err := executeCmd(t, "text", NewRunCommand, netsDir, "--net", "counter", "--cycles", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ counter (")
	assert.Contains(t, out, "ran 4 cycle(s), 0 overrun(s)")
	assert.NotContains(t, out, "Recorded to")
}

func TestRunAllNetsByDefault(t *testing.T) {
	out, _, err := executeCmd(t, "json", NewRunCommand, netsDir, "--cycles", "2")
	require.NoError(t, err)

	var summary RunSummary
	decode(t, out, &summary)
	require.Len(t, summary.Nets, 2)
	assert.Equal(t, "counter", summary.Nets[0].Name)
	assert.Equal(t, "ratio", summary.Nets[1].Name)
	for _, n := range summary.Nets {
		assert.Equal(t, int64(2), n.Cycles)
		assert.NotEmpty(t, n.ID)
	}
}

func TestRunSetAppliesInFirstCycle(t *testing.T) {
	db, id, err := recordRun(t, "ratio", 5, "ratio.den=2")
	require.NoError(t, err)

	st := openStore(t, db)
	ins, err := st.ReadUpdates(context.Background(), id, ir.DirectionIn)
	require.NoError(t, err)
	require.Len(t, ins, 1)
	assert.Equal(t, int64(0), ins[0].Cycle)
	assert.Equal(t, ir.Int(2), ins[0].Value)

	outs, err := st.Query(context.Background(), queryir.Updates{
		Run:    id,
		Filter: queryir.KeyEquals{Key: "ratio.out"},
	})
	require.NoError(t, err)
	got := make([]ir.Value, len(outs))
	for i, u := range outs {
		got[i] = u.Value
	}
	assert.Equal(t, []ir.Value{ir.Int(0), ir.Int(0), ir.Int(1), ir.Int(1), ir.Int(2)}, got)
}

func TestRunFaultIsRecorded(t *testing.T) {
	db, id, err := recordRun(t, "ratio", 5, "ratio.den=0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st := openStore(t, db)
	fault, ok, err := st.ReadFault(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(0), fault.Cycle)
	assert.Equal(t, "quot", fault.Node)
	assert.Contains(t, fault.Message, "division by zero")
}

func TestRunFaultTextOutput(t *testing.T) {
	out, _, err := executeCmd(t, "text", NewRunCommand, netsDir, "--net", "ratio", "--cycles", "3", "--set", "ratio.den=0")
	require.Error(t, err)
	assert.Contains(t, out, "faulted at cycle 0 in quot")
}

func TestRunInvalidSet(t *testing.T) {
	tests := []struct {
		name string
		set  string
		want string
	}{
		{"no equals", "ratio.den", "want key=value"},
		{"unknown channel", "ratio.num=1", "no net declares this channel"},
		{"bad value", "ratio.den=[1,", "--set ratio.den"},
		{"wrong kind", "ratio.den=true", "--set ratio.den"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCmd(t, "text", NewRunCommand, netsDir, "--net", "ratio", "--cycles", "1", "--set", tt.set)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRunUnknownNet(t *testing.T) {
	out, _, err := executeCmd(t, "json", NewRunCommand, netsDir, "--net", "pendulum", "--cycles", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNetNotFound, resp.Error.Code)
}

func TestRunInvalidNet(t *testing.T) {
	dir := writeNetsDir(t, `package nets

net: bad: {
	period: 0.01
	nodes: spin: kind: "gyroscope"
}
`)
	out, _, err := executeCmd(t, "text", NewRunCommand, dir, "--cycles", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "net bad is invalid")
}

func TestRunNegativeCycles(t *testing.T) {
	_, _, err := executeCmd(t, "text", NewRunCommand, netsDir, "--cycles", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunNonExistentSpecsDir(t *testing.T) {
	_, _, err := executeCmd(t, "text", NewRunCommand, "/nonexistent/nets")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunRealTimeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	db := filepath.Join(t.TempDir(), "runs.db")
	out := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{netsDir, "--net", "counter", "--db", db})

	require.NoError(t, cmd.ExecuteContext(ctx))

	var summary RunSummary
	decode(t, out.String(), &summary)
	require.Len(t, summary.Nets, 1)
	assert.Positive(t, summary.Nets[0].Cycles)
	assert.Nil(t, summary.Nets[0].Fault)
}

func TestRunUsesConfigDatabase(t *testing.T) {
	opts := &RootOptions{Format: "json"}
	opts.cfg().Database = filepath.Join(t.TempDir(), "from-config.db")

	out := &bytes.Buffer{}
	cmd := NewRunCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{netsDir, "--net", "counter", "--cycles", "1"})
	require.NoError(t, cmd.Execute())

	var summary RunSummary
	decode(t, out.String(), &summary)
	assert.Equal(t, opts.Config.Database, summary.Database)

	runs, err := openStore(t, summary.Database).ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunServesMetrics(t *testing.T) {
	out, errOut, err := executeCmd(t, "text", NewRunCommand, netsDir, "--net", "counter", "--cycles", "2", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "ran 2 cycle(s)")
	assert.Contains(t, errOut, "metrics server started")
}
