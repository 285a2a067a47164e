package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Printer writes user-facing CLI output. Colors apply only when the
// destination is a terminal; piped output stays plain.
type Printer struct {
	out    io.Writer
	styles Styles
}

// NewPrinter creates a printer for w. Color is enabled only when w is a
// terminal file descriptor and NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = os.Getenv("NO_COLOR") != "" ||
			(!isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()))
	}
	return &Printer{out: w, styles: GetStyles(noColor)}
}

// NewPlainPrinter creates a printer that never colors, for tests and
// machine-read output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{out: w, styles: NoColorStyles()}
}

// Headerf prints a bold section header line.
func (p *Printer) Headerf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Header.Render(fmt.Sprintf(format, args...)))
}

// Successf prints a success line.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Warnf prints a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Warning.Render("WARN: "+fmt.Sprintf(format, args...)))
}

// Errorf prints an error line.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Error.Render("ERROR: "+fmt.Sprintf(format, args...)))
}

// Printf prints an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Labelf prints an aligned "label: value" line.
func (p *Printer) Labelf(label, format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n",
		p.styles.Label.Render(fmt.Sprintf("%-14s", label+":")),
		fmt.Sprintf(format, args...))
}

// Progressf prints a counter line, e.g. "[120/900] parsing".
func (p *Printer) Progressf(current, total int, format string, args ...any) {
	counter := p.styles.Dim.Render(fmt.Sprintf("[%d/%d]", current, total))
	fmt.Fprintf(p.out, "%s %s\n", counter, fmt.Sprintf(format, args...))
}
