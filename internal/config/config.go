// Package config loads rcore's YAML configuration.
//
// Precedence, lowest first: Default, the YAML file, RCORE_* environment
// variables, then command-line flags (applied by the cli package).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds process-wide settings. Net descriptions carry their own
// periods; DefaultPeriod only fills descriptions that omit one.
type Config struct {
	LogLevel      string  `yaml:"log_level"`      // debug | info | warn | error
	DefaultPeriod float64 `yaml:"default_period"` // Seconds
	Database      string  `yaml:"database"`       // SQLite recording path, "" disables recording
	MetricsAddr   string  `yaml:"metrics_addr"`   // Prometheus listen address, "" disables
	ReportRate    float64 `yaml:"report_rate"`    // Report lines per second, 0 disables
	ReportBurst   int     `yaml:"report_burst"`
}

// Environment variables read by ApplyEnv.
const (
	EnvDatabase    = "RCORE_DB"
	EnvMetricsAddr = "RCORE_METRICS_ADDR"
	EnvLogLevel    = "RCORE_LOG_LEVEL"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		DefaultPeriod: 0.01,
		ReportRate:    1,
		ReportBurst:   1,
	}
}

// Load reads path over the defaults. Unknown keys are rejected so typos
// surface instead of silently keeping a default. An empty path returns the
// defaults with the environment applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabase); ok {
		c.Database = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.MetricsAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.DefaultPeriod <= 0 {
		errs = append(errs, fmt.Errorf("default_period must be positive, got %s", strconv.FormatFloat(c.DefaultPeriod, 'g', -1, 64)))
	}
	if c.ReportRate < 0 {
		errs = append(errs, fmt.Errorf("report_rate must not be negative, got %g", c.ReportRate))
	}
	if c.ReportRate > 0 && c.ReportBurst < 1 {
		errs = append(errs, fmt.Errorf("report_burst must be at least 1 when report_rate is set, got %d", c.ReportBurst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Level returns the slog level for LogLevel. Validate has already rejected
// unknown names; an unknown name maps to Info.
func (c *Config) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}
