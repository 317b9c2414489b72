package printer

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"spoold/internal/registry"
)

// Connector yields a writable byte sink for a named printer. The last
// pipeline stage inherits the returned file as its stdout; the spooler
// closes its own copy right after the pipeline starts.
type Connector interface {
	Connect(name string, typ *registry.FileType) (*os.File, error)
}

// SpoolDirConnector is the production [Connector]. Each printer maps to an
// append-only file <dir>/<name>.out, standing in for the device or remote
// queue a real deployment would open here.
type SpoolDirConnector struct {
	log *zap.Logger
	dir string
}

// NewSpoolDirConnector creates a connector rooted at dir. The directory is
// created on first use, not here, so a misconfigured path surfaces as a
// submission error rather than a startup failure.
func NewSpoolDirConnector(log *zap.Logger, dir string) *SpoolDirConnector {
	if log == nil {
		log = zap.NewNop()
	}
	return &SpoolDirConnector{log: log.Named("connector"), dir: dir}
}

// Connect opens the printer's output file for appending.
func (c *SpoolDirConnector) Connect(name string, typ *registry.FileType) (*os.File, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("spool directory: %w", err)
	}
	path := filepath.Join(c.dir, name+".out")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("connect to printer %q: %w", name, err)
	}
	c.log.Debug("printer endpoint opened",
		zap.String("printer", name),
		zap.String("type", typ.Name),
		zap.String("path", path))
	return f, nil
}
