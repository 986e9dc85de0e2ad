// Package style provides terminal styling for ratecalc output using Lipgloss.
// Styling is applied only when the destination is a terminal.
package style

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	// Success style for positive outcomes (green)
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)

	// Warning style for cautionary messages (yellow)
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)

	// Dim style for secondary information (gray)
	Dim = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	Bold = lipgloss.NewStyle().Bold(true)
)

// Printer renders styled text when its writer is a terminal and plain text
// otherwise, so piped and captured output stay free of escape codes.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter wraps w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: IsTerminal(w)}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Writer returns the wrapped writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Render applies s when printing to a terminal.
func (p *Printer) Render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}
