// Package output formats command line results.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes status lines, coloured when the terminal allows it.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer on stdout/stderr. Colours are disabled when
// NO_COLOR is set or the terminal is dumb.
func NewPrinter() *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, resolveColors())
}

// NewPrinterWithWriters creates a printer with custom writers.
func NewPrinterWithWriters(out, err io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors}
}

func resolveColors() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return !color.NoColor
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...any) {
	p.line(p.out, color.FgCyan, "", format, args...)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	p.line(p.out, color.FgGreen, "[OK] ", format, args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.err, color.FgYellow, "[WARN] ", format, args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	p.line(p.err, color.FgRed, "[ERROR] ", format, args...)
}

// Out returns the writer for regular output, e.g. tables.
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) line(w io.Writer, attr color.Attribute, prefix, format string, args ...any) {
	msg := prefix + fmt.Sprintf(format, args...) + "\n"
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		_, _ = c.Fprint(w, msg)
		return
	}
	_, _ = fmt.Fprint(w, msg)
}
