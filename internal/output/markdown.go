package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders markdown for terminal display. It backs the
// help page; when rendering is disabled or unavailable the raw markdown
// passes through unchanged.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	enabled  bool
}

// NewMarkdownRenderer creates a renderer. Style should be a glamour theme
// name; "auto" is replaced with "dark" to avoid detection delays.
func NewMarkdownRenderer(enabled bool, style string, wordWrap int) *MarkdownRenderer {
	if !enabled || !SupportsColor() {
		return &MarkdownRenderer{enabled: false}
	}

	if style == "" || style == "auto" {
		style = "dark"
	}
	if wordWrap <= 0 {
		wordWrap = 100
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return &MarkdownRenderer{enabled: false}
	}
	return &MarkdownRenderer{renderer: r, enabled: true}
}

// Render converts markdown to styled terminal output, falling back to the
// raw text on any failure.
func (m *MarkdownRenderer) Render(markdown string) string {
	if !m.enabled || markdown == "" {
		return markdown
	}
	out, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(out, "\n")
}
