package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// appName names the configuration directory.
const appName = "pulse-status"

// Environment variables overriding file settings.
const (
	EnvInterval   = "PULSE_STATUS_INTERVAL"
	EnvLogLevel   = "PULSE_STATUS_LOG_LEVEL"
	EnvLineWidth  = "PULSE_STATUS_LINE_WIDTH"
	EnvDateFormat = "PULSE_STATUS_DATE_FORMAT"
)

// Load reads configuration from the standard config paths.
// Search order:
//  1. $XDG_CONFIG_HOME/pulse-status/config.{yaml,yml,toml}
//  2. ~/.config/pulse-status/config.{yaml,yml,toml}
//
// If no file exists, the defaults are used. Environment overrides apply in
// both cases.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path. The syntax is
// chosen by extension: .toml is TOML, anything else YAML. A missing file
// yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes configuration in the given syntax over the
// defaults and applies environment overrides.
func LoadFromReader(r io.Reader, format Format) (*Config, error) {
	cfg := DefaultConfig()
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads a dotenv file into the process environment. Variables
// that are already set are left alone.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: env file: %w", err)
	}
	return nil
}

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvInterval, err)
		}
		cfg.Interval = Duration{d}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLineWidth); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvLineWidth, err)
		}
		cfg.LineWidth = w
	}
	if v := os.Getenv(EnvDateFormat); v != "" {
		cfg.DateFormat = v
	}
	return nil
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	dirs := []string{xdgConfigHome(home)}

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	if defaultXDG := filepath.Join(home, ".config"); dirs[0] != defaultXDG {
		dirs = append(dirs, defaultXDG)
	}

	var paths []string
	for _, dir := range dirs {
		for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
			paths = append(paths, filepath.Join(dir, appName, name))
		}
	}
	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}
