// Package logging builds the structured logger the spooler components
// share. Logging is file-directed and off by default: an interactive
// spooler must not interleave log lines with its prompt.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spoold/internal/config"
)

// New constructs a zap logger from cfg. An empty path returns a no-op
// logger; "stderr" and "stdout" are passed through to zap unchanged.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	if cfg.Path == "" {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{cfg.Path}
	zc.ErrorOutputPaths = []string{cfg.Path}
	return zc.Build()
}
