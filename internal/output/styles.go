// Package output provides terminal output formatting using lipgloss styles.
//
// The package renders the interactive prompt, command acknowledgements,
// printer and job listings, and the markdown help page. The prompt,
// acknowledgements and muted lines are styled with lipgloss, degrading to
// plain text when the terminal does not support color; listing lines and
// [Printer.Line] output are always plain.
//
// Key types:
//   - [Printer] - Structured terminal output writer
//   - [MarkdownRenderer] - Glamour-backed help page renderer
//
// Use [NewPrinter] for production output to stdout, or [NewPrinterWithWriter]
// to capture output in tests by providing a custom io.Writer.
package output

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#3FB950") // Green - acknowledgements
	colorError   = lipgloss.Color("#F85149") // Red - errors
	colorMuted   = lipgloss.Color("#8B949E") // Gray - secondary info
	colorAccent  = lipgloss.Color("#58A6FF") // Blue - prompt and identifiers
)

var (
	stylePrompt = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleOK     = lipgloss.NewStyle().Foreground(colorSuccess)
	styleError  = lipgloss.NewStyle().Foreground(colorError)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
)
