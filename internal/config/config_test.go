package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.01, cfg.DefaultPeriod)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
default_period: 0.002
database: /tmp/runs.db
metrics_addr: ":9100"
report_rate: 4
report_burst: 2
`)
	t.Setenv(EnvDatabase, "")
	os.Unsetenv(EnvDatabase)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 0.002, cfg.DefaultPeriod)
	assert.Equal(t, "/tmp/runs.db", cfg.Database)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, 4.0, cfg.ReportRate)
	assert.Equal(t, 2, cfg.ReportBurst)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().DefaultPeriod, cfg.DefaultPeriod)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "log_levle: debug\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_levle")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero period", func(c *Config) { c.DefaultPeriod = 0 }, "default_period"},
		{"negative rate", func(c *Config) { c.ReportRate = -1 }, "report_rate"},
		{"burst without room", func(c *Config) { c.ReportBurst = 0 }, "report_burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDatabase:    "env.db",
		EnvMetricsAddr: "127.0.0.1:9000",
		EnvLogLevel:    "warn",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, "127.0.0.1:9000", cfg.MetricsAddr)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}
