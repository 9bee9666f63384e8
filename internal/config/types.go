// Package config provides configuration loading and management for maturity.
//
// Configuration is loaded using Viper, supporting YAML (or JSON) config files
// and environment variable overrides. The defaults talk to a product store on
// localhost and work without any configuration file.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [RemoteConfig] selects and tunes the product store backend
//
// Configuration priority (highest to lowest):
//  1. Environment variables (MATURITY_ prefix, plus the MATURITY_BASE_URL and
//     MATURITY_STRICT_STAGES shortcuts)
//  2. Config file specified by MATURITY_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/maturity/config.yaml
//     - macOS: ~/Library/Application Support/maturity/config.yaml
//     - Windows: %APPDATA%\maturity\config.yaml
//  4. ./config.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"maturity/internal/stage"
)

// ErrInvalidConfig indicates a configuration value outside its allowed range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Output formats accepted by [OutputConfig.Format].
const (
	FormatBoard = "board"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Remote selects the product store.
	Remote RemoteConfig `mapstructure:"remote"`

	// Sync controls the background refresh of the product cache.
	Sync SyncConfig `mapstructure:"sync"`

	// Stages controls how stage values from the store are parsed.
	Stages StagesConfig `mapstructure:"stages"`

	// Criteria optionally replaces the built-in transition criteria table.
	Criteria CriteriaConfig `mapstructure:"criteria"`

	// Output contains terminal output configuration.
	Output OutputConfig `mapstructure:"output"`

	// Log contains structured logging configuration.
	Log LogConfig `mapstructure:"log"`

	// Metrics contains the prometheus endpoint configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// RemoteConfig selects and tunes the product store backend.
type RemoteConfig struct {
	// BaseURL is the HTTP product store address.
	// Default: "http://localhost:8000"
	// Can be overridden with MATURITY_BASE_URL.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds every HTTP request.
	// Default: 15s
	Timeout time.Duration `mapstructure:"timeout"`

	// StoreFile, when set, replaces the HTTP store with a local YAML file.
	StoreFile string `mapstructure:"store_file"`
}

// SyncConfig controls the background refresh.
type SyncConfig struct {
	// RefreshInterval is the period between background fetches.
	// Default: 60s
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// StagesConfig controls stage parsing.
type StagesConfig struct {
	// Strict rejects products whose stage is missing or unknown instead of
	// treating them as the first stage.
	// Default: false
	// Can be overridden with MATURITY_STRICT_STAGES.
	Strict bool `mapstructure:"strict"`
}

// CriteriaConfig points at an optional CSV criteria manifest.
type CriteriaConfig struct {
	// ManifestPath is a CSV file with criterion,from,to[,label] columns.
	// Empty uses the built-in table.
	ManifestPath string `mapstructure:"manifest_path"`
}

// OutputConfig contains terminal output configuration.
type OutputConfig struct {
	// Format is the default rendering: board, table, json or yaml.
	// Default: "board"
	Format string `mapstructure:"format"`
}

// LogConfig contains structured logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `mapstructure:"level"`
}

// MetricsConfig contains the prometheus endpoint configuration.
type MetricsConfig struct {
	// Addr is the listen address for /metrics while watching (e.g., ":9090").
	// Empty disables the endpoint.
	Addr string `mapstructure:"addr"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			RefreshInterval: 60 * time.Second,
		},
		Output: OutputConfig{
			Format: FormatBoard,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// StageMode returns the stage parsing mode selected by Stages.Strict.
func (c *Config) StageMode() stage.Mode {
	if c.Stages.Strict {
		return stage.Strict
	}
	return stage.Lenient
}

// LogLevel parses Log.Level. It is only valid after [Config.Validate].
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// UsesFileStore reports whether the YAML file backend is selected.
func (c *Config) UsesFileStore() bool {
	return strings.TrimSpace(c.Remote.StoreFile) != ""
}

// Validate checks value ranges. Errors wrap [ErrInvalidConfig].
func (c *Config) Validate() error {
	if !c.UsesFileStore() && strings.TrimSpace(c.Remote.BaseURL) == "" {
		return fmt.Errorf("%w: remote.base_url is required when remote.store_file is not set", ErrInvalidConfig)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("%w: remote.timeout must be positive, got %s", ErrInvalidConfig, c.Remote.Timeout)
	}
	if c.Sync.RefreshInterval <= 0 {
		return fmt.Errorf("%w: sync.refresh_interval must be positive, got %s", ErrInvalidConfig, c.Sync.RefreshInterval)
	}
	switch c.Output.Format {
	case FormatBoard, FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: output.format must be board, table, json or yaml, got %q", ErrInvalidConfig, c.Output.Format)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
