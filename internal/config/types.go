// Package config provides configuration loading and management for spoold.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The defaults work out of the box; a config
// file only needs the settings it wants to change.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [Spoolfile] is the declarative preload of types, conversions and printers
//
// Configuration priority (highest to lowest):
//  1. Environment variables (SPOOLD_ prefix)
//  2. Config file specified by SPOOLD_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/spoold/spoold.yaml
//     - macOS: ~/Library/Application Support/spoold/spoold.yaml
//  4. ./config/spoold.yaml
//  5. ./spoold.yaml
//  6. [DefaultConfig] defaults
package config

import "time"

// Config represents the root configuration structure.
type Config struct {
	// Spool contains the scheduler and pipeline settings.
	Spool SpoolConfig `mapstructure:"spool"`

	// Logging contains structured-log settings.
	Logging LoggingConfig `mapstructure:"logging"`

	// Output contains terminal output settings.
	Output OutputConfig `mapstructure:"output"`
}

// SpoolConfig bounds the stores and fixes pipeline defaults.
type SpoolConfig struct {
	// MaxPrinters caps the printer registry.
	MaxPrinters int `mapstructure:"max_printers"`

	// MaxJobs caps the job store.
	MaxJobs int `mapstructure:"max_jobs"`

	// Retention is how long finished and aborted jobs stay listed before
	// a sweep removes them. Default: 10s.
	Retention time.Duration `mapstructure:"retention"`

	// Passthrough is the argv used when a job's type already matches its
	// printer's type and no conversion is needed. Default: ["cat"].
	Passthrough []string `mapstructure:"passthrough"`

	// Dir is the spool output directory; each printer appends to
	// <dir>/<name>.out.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls the zap logger. With an empty Path logging is
// disabled entirely so the interactive prompt stays clean.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Path is the log file. Empty disables logging; "stderr" is accepted.
	Path string `mapstructure:"path"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// TruncateLength is the maximum display width of a file path in the
	// job listing. Longer paths are truncated with an ellipsis.
	// Default: 48.
	TruncateLength int `mapstructure:"truncate_length"`

	// Markdown contains help-page rendering configuration.
	Markdown MarkdownConfig `mapstructure:"markdown"`
}

// MarkdownConfig configures glamour rendering of the help page.
type MarkdownConfig struct {
	// Enabled controls whether markdown rendering is active.
	Enabled bool `mapstructure:"enabled"`

	// Style is the glamour theme: "dark", "light", "dracula", ...
	// Avoid "auto", it can cause detection delays on some terminals.
	Style string `mapstructure:"style"`

	// WordWrap is the column width for text wrapping.
	WordWrap int `mapstructure:"word_wrap"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Spool: SpoolConfig{
			MaxPrinters: 8,
			MaxJobs:     64,
			Retention:   10 * time.Second,
			Passthrough: []string{"cat"},
			Dir:         "spool",
		},
		Logging: LoggingConfig{
			Level: "info",
			Path:  "",
		},
		Output: OutputConfig{
			TruncateLength: 48,
			Markdown: MarkdownConfig{
				Enabled:  true,
				Style:    "dark",
				WordWrap: 100,
			},
		},
	}
}
