// Package ui renders styled status lines for the command line tool.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Icon is a status marker.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
)

// Printer writes status lines, styled when the destination is a terminal.
type Printer struct {
	w      io.Writer
	styled bool

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	title   lipgloss.Style
}

// NewPrinter returns a Printer for w. Styling is enabled only when w is a
// terminal file.
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, IsTerminal(w))
}

// NewPlainPrinter returns a Printer that never emits escape sequences.
func NewPlainPrinter(w io.Writer) *Printer {
	return newPrinter(w, false)
}

func newPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{
		w:       w,
		styled:  styled,
		success: lipgloss.NewStyle().Foreground(ColorSuccess),
		warning: lipgloss.NewStyle().Foreground(ColorWarning),
		failure: lipgloss.NewStyle().Foreground(ColorError),
		muted:   lipgloss.NewStyle().Foreground(ColorMuted),
		title:   lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled reports whether output is styled.
func (p *Printer) Styled() bool {
	return p.styled
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// Title prints a heading.
func (p *Printer) Title(text string) {
	fmt.Fprintln(p.w, p.render(p.title, text))
}

// Success prints a line prefixed with a success icon.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.success, IconSuccess, format, args...)
}

// Warning prints a line prefixed with a warning icon.
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.warning, IconWarning, format, args...)
}

// Error prints a line prefixed with an error icon.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.failure, IconError, format, args...)
}

// Bullet prints an indented list item.
func (p *Printer) Bullet(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.render(p.muted, string(IconBullet)), fmt.Sprintf(format, args...))
}

func (p *Printer) line(s lipgloss.Style, icon Icon, format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.render(s, string(icon)), fmt.Sprintf(format, args...))
}
