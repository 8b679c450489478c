// Package ui prints the human-readable progress lines of the setup
// sequence. Styling is applied only when stdout is a terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer writes progress lines to out, styled when styled is true.
type Printer struct {
	out    io.Writer
	styled bool
}

// New returns a Printer for stdout with TTY auto-detection.
func New() *Printer {
	return &Printer{
		out:    os.Stdout,
		styled: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// NewWriter returns an unstyled Printer for out; used by tests.
func NewWriter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// Step announces the start of a sequence step.
func (p *Printer) Step(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(stepStyle, "==> "+fmt.Sprintf(format, args...)))
}

// Success reports a completed step.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(successStyle, "  ✓ "+fmt.Sprintf(format, args...)))
}

// Warn reports a non-fatal problem; the sequence continues.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(warnStyle, "  ! "+fmt.Sprintf(format, args...)))
}

// Error reports a failure.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(errorStyle, "  ✗ "+fmt.Sprintf(format, args...)))
}

// Detail prints supporting information under the current step.
func (p *Printer) Detail(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(detailStyle, "    "+fmt.Sprintf(format, args...)))
}
