package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from files and environment.
//
// Loader uses Viper to load configuration from YAML files and environment
// variables, merging them with default values. The loader supports the
// SPOOLD_ environment variable prefix for all configuration options.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader. Call [Loader.Load] to
// perform the actual loading.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from the default locations and environment.
//
// Environment variable names use underscores for nested keys; for example
// spool.max_jobs becomes SPOOLD_SPOOL_MAX_JOBS.
//
// Returns an error if a config file exists but cannot be parsed. Missing
// config files are not an error; the loader falls back to defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix("SPOOLD")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	// Environment-only overrides reach Unmarshal only for keys Viper has
	// seen; register every default explicitly.
	setDefaults(l.v, cfg)

	configPath := os.Getenv("SPOOLD_CONFIG_PATH")
	if configPath != "" {
		l.v.SetConfigFile(configPath)
	} else {
		l.v.SetConfigName("spoold")

		userConfigDir, err := os.UserConfigDir()
		if err == nil {
			l.v.AddConfigPath(filepath.Join(userConfigDir, "spoold"))
		}
		l.v.AddConfigPath("./config")
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("spool.max_printers", cfg.Spool.MaxPrinters)
	v.SetDefault("spool.max_jobs", cfg.Spool.MaxJobs)
	v.SetDefault("spool.retention", cfg.Spool.Retention)
	v.SetDefault("spool.passthrough", cfg.Spool.Passthrough)
	v.SetDefault("spool.dir", cfg.Spool.Dir)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.path", cfg.Logging.Path)
	v.SetDefault("output.truncate_length", cfg.Output.TruncateLength)
	v.SetDefault("output.markdown.enabled", cfg.Output.Markdown.Enabled)
	v.SetDefault("output.markdown.style", cfg.Output.Markdown.Style)
	v.SetDefault("output.markdown.word_wrap", cfg.Output.Markdown.WordWrap)
}

// LoadFromFile loads configuration from a specific file path, without
// searching default locations or consulting SPOOLD_CONFIG_PATH.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	l.v.SetConfigFile(path)
	l.v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}
