// Package config loads pulse-status settings from an optional YAML or TOML
// file, the environment and an optional dotenv file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/pulse-status/entry"
	"gitlab.com/tinyland/lab/pulse-status/pipeline"
)

// Config represents the pulse-status configuration.
type Config struct {
	// Interval is the tick interval.
	Interval Duration `yaml:"interval" toml:"interval"`
	// LineWidth is the line capacity in bytes. Zero picks the terminal width
	// when stdout is a terminal and DefaultLineWidth otherwise.
	LineWidth int `yaml:"line_width" toml:"line_width"`
	// DateFormat is the strftime layout of the datetime entry.
	DateFormat string `yaml:"date_format" toml:"date_format"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" toml:"log_level"`
	// Specifiers are used when none are given on the command line.
	Specifiers []string `yaml:"specifiers" toml:"specifiers"`
	// QueueDepth bounds the reads in flight. Zero means one per source.
	QueueDepth int `yaml:"queue_depth" toml:"queue_depth"`

	Paths     PathsConfig     `yaml:"paths" toml:"paths"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Smoothing SmoothingConfig `yaml:"smoothing" toml:"smoothing"`
	Precision PrecisionConfig `yaml:"precision" toml:"precision"`
}

// PathsConfig holds the roots of the kernel pseudo-filesystems.
type PathsConfig struct {
	Proc string `yaml:"proc" toml:"proc"`
	Sys  string `yaml:"sys" toml:"sys"`
}

// RateLimitConfig holds recompute periods in ticks.
type RateLimitConfig struct {
	Load     int `yaml:"load" toml:"load"`
	Pressure int `yaml:"pressure" toml:"pressure"`
	Memory   int `yaml:"memory" toml:"memory"`
	Battery  int `yaml:"battery" toml:"battery"`
}

// SmoothingConfig selects the moving average.
type SmoothingConfig struct {
	// Mode is "exponential" or "window".
	Mode   string  `yaml:"mode" toml:"mode"`
	Alpha  float64 `yaml:"alpha" toml:"alpha"`
	Window int     `yaml:"window" toml:"window"`
}

// PrecisionConfig holds decimal places per value family.
type PrecisionConfig struct {
	Load     int `yaml:"load" toml:"load"`
	Pressure int `yaml:"pressure" toml:"pressure"`
	Memory   int `yaml:"memory" toml:"memory"`
	Battery  int `yaml:"battery" toml:"battery"`
}

// DefaultLineWidth is the line width used when stdout is not a terminal.
const DefaultLineWidth = 120

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	opts := entry.DefaultOptions()
	smoothing := pipeline.DefaultSmoothing()

	return &Config{
		Interval:   Duration{500 * time.Millisecond},
		DateFormat: opts.DateLayout,
		LogLevel:   "warn",
		Specifiers: []string{"datetime", "load", "pressure"},
		Paths: PathsConfig{
			Proc: opts.ProcRoot,
			Sys:  opts.SysRoot,
		},
		RateLimit: RateLimitConfig{
			Load:     opts.RateLimit.Load,
			Pressure: opts.RateLimit.Pressure,
			Memory:   opts.RateLimit.Memory,
			Battery:  opts.RateLimit.Battery,
		},
		Smoothing: SmoothingConfig{
			Mode:   smoothing.Mode.String(),
			Alpha:  smoothing.Alpha,
			Window: smoothing.Window,
		},
		Precision: PrecisionConfig{
			Load:     opts.Precision.Load,
			Pressure: opts.Precision.Pressure,
			Memory:   opts.Precision.Memory,
			Battery:  opts.Precision.Battery,
		},
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Interval.Duration <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval.Duration)
	}
	// Ticks fall on multiples of the interval since midnight.
	if (24*time.Hour)%c.Interval.Duration != 0 {
		return fmt.Errorf("interval must divide 24h evenly, got %v", c.Interval.Duration)
	}
	if c.LineWidth < 0 {
		return fmt.Errorf("line_width must be non-negative, got %d", c.LineWidth)
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("queue_depth must be non-negative, got %d", c.QueueDepth)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	mode, err := pipeline.ParseMode(c.Smoothing.Mode)
	if err != nil {
		return fmt.Errorf("smoothing.mode: %w", err)
	}
	if mode == pipeline.Exponential && (c.Smoothing.Alpha <= 0 || c.Smoothing.Alpha > 1) {
		return fmt.Errorf("smoothing.alpha must be in (0,1], got %v", c.Smoothing.Alpha)
	}
	if c.Smoothing.Window < 1 {
		return fmt.Errorf("smoothing.window must be at least 1, got %d", c.Smoothing.Window)
	}

	for name, period := range map[string]int{
		"load":     c.RateLimit.Load,
		"pressure": c.RateLimit.Pressure,
		"memory":   c.RateLimit.Memory,
		"battery":  c.RateLimit.Battery,
	} {
		if period < 1 {
			return fmt.Errorf("rate_limit.%s must be at least 1, got %d", name, period)
		}
	}
	for name, precision := range map[string]int{
		"load":     c.Precision.Load,
		"pressure": c.Precision.Pressure,
		"memory":   c.Precision.Memory,
		"battery":  c.Precision.Battery,
	} {
		if precision < 0 {
			return fmt.Errorf("precision.%s must be non-negative, got %d", name, precision)
		}
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
}

// EntryOptions converts the configuration into entry build options. The
// configuration must be valid.
func (c *Config) EntryOptions(logger *slog.Logger) entry.Options {
	mode, _ := pipeline.ParseMode(c.Smoothing.Mode)
	return entry.Options{
		ProcRoot:   c.Paths.Proc,
		SysRoot:    c.Paths.Sys,
		DateLayout: c.DateFormat,
		RateLimit: entry.RateLimits{
			Load:     c.RateLimit.Load,
			Pressure: c.RateLimit.Pressure,
			Memory:   c.RateLimit.Memory,
			Battery:  c.RateLimit.Battery,
		},
		Smoothing: pipeline.Smoothing{
			Mode:   mode,
			Alpha:  c.Smoothing.Alpha,
			Window: c.Smoothing.Window,
		},
		Precision: entry.Precisions{
			Load:     c.Precision.Load,
			Pressure: c.Precision.Pressure,
			Memory:   c.Precision.Memory,
			Battery:  c.Precision.Battery,
		},
		Logger: logger,
	}
}

// Duration is a time.Duration that decodes from strings such as "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}
