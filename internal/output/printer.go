package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-runewidth"

	"spoold/internal/printer"
	"spoold/internal/spool"
)

// Printer writes the spooler's terminal output: prompt, acknowledgements
// and listings. Styling is applied only when the terminal supports it, so
// captured output in tests and pipes stays plain.
type Printer struct {
	out      io.Writer
	color    bool
	truncate int
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter(truncate int) *Printer {
	p := NewPrinterWithWriter(os.Stdout, truncate)
	p.color = SupportsColor()
	return p
}

// NewPrinterWithWriter creates a Printer with a custom writer and no
// styling. This is useful for tests to capture output.
func NewPrinterWithWriter(w io.Writer, truncate int) *Printer {
	if truncate <= 0 {
		truncate = 48
	}
	return &Printer{out: w, truncate: truncate}
}

func (p *Printer) styled(s string, apply func(...string) string) string {
	if !p.color {
		return s
	}
	return apply(s)
}

// Prompt writes the interactive prompt without a trailing newline.
func (p *Printer) Prompt() {
	fmt.Fprint(p.out, p.styled("spoold> ", stylePrompt.Render))
}

// OK acknowledges a successful command.
func (p *Printer) OK() {
	fmt.Fprintln(p.out, p.styled("ok", styleOK.Render))
}

// Error reports a failed command.
func (p *Printer) Error(reason string) {
	fmt.Fprintln(p.out, p.styled("error: "+reason, styleError.Render))
}

// Line writes an unstyled line.
func (p *Printer) Line(s string) {
	fmt.Fprintln(p.out, s)
}

// Muted writes a secondary-information line.
func (p *Printer) Muted(s string) {
	fmt.Fprintln(p.out, p.styled(s, styleMuted.Render))
}

// PrinterLine writes one printer in the listing format.
func (p *Printer) PrinterLine(id int, pr *printer.Printer) {
	fmt.Fprintf(p.out, "PRINTER: id=%d, name=%s, type=%s, status=%s\n",
		id, pr.Name, pr.Type.Name, pr.Status)
}

// JobLine writes one job in the listing format. Long input paths are
// truncated to the configured display width; truncation is width-aware so
// multi-column runes never split.
func (p *Printer) JobLine(j *spool.Job) {
	path := runewidth.Truncate(j.InputPath, p.truncate, "…")
	prName := "-"
	if j.Printer != nil {
		prName = j.Printer.Name
	}
	fmt.Fprintf(p.out, "JOB: id=%d, file=%s, printer=%s, status=%s\n",
		j.ID, path, prName, j.Status)
}
