package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spoolfile is the declarative preload applied at startup: the file types,
// conversion programs and printers a spooler should come up with, so a
// session does not start from an empty registry.
type Spoolfile struct {
	// Types lists file type names to declare, in order.
	Types []string `yaml:"types"`

	// Conversions lists conversion edges to declare, in order.
	Conversions []SpoolfileConversion `yaml:"conversions"`

	// Printers lists printers to declare, in order.
	Printers []SpoolfilePrinter `yaml:"printers"`
}

// SpoolfileConversion declares one conversion edge.
type SpoolfileConversion struct {
	From    string   `yaml:"from"`
	To      string   `yaml:"to"`
	Command []string `yaml:"command"`
}

// SpoolfilePrinter declares one printer.
type SpoolfilePrinter struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Enabled moves the printer straight to idle after declaration.
	Enabled bool `yaml:"enabled"`
}

// ReadSpoolfile reads and parses a spoolfile.
func ReadSpoolfile(path string) (*Spoolfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spoolfile: %w", err)
	}

	var sf Spoolfile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse spoolfile: %w", err)
	}

	return &sf, nil
}
