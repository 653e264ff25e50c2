// Package ui renders charts and command feedback for the terminal using
// lipgloss styles and tables.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// Option configures a Printer.
type Option func(*printerConfig)

type printerConfig struct {
	noColor bool
}

// WithNoColor disables every color and text attribute.
func WithNoColor() Option {
	return func(c *printerConfig) { c.noColor = true }
}

// Field is one labelled value in a key/value block.
type Field struct {
	Label string
	Value string
}

// Printer writes styled output to a single writer.
type Printer struct {
	w  io.Writer
	st styles
}

// New returns a Printer writing to w. Color is used when w is a terminal
// that supports it, unless WithNoColor is given.
func New(w io.Writer, opts ...Option) *Printer {
	var cfg printerConfig
	for _, o := range opts {
		o(&cfg)
	}
	r := lipgloss.NewRenderer(w)
	if cfg.noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{w: w, st: newStyles(r)}
}

// Title prints a bold heading line.
func (p *Printer) Title(s string) {
	fmt.Fprintln(p.w, p.st.title.Render(s))
}

// Section prints a section heading separated from what precedes it.
func (p *Printer) Section(s string) {
	fmt.Fprintln(p.w, p.st.heading.Render(s))
}

// Fields prints aligned label/value pairs.
func (p *Printer) Fields(fields ...Field) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	for _, f := range fields {
		label := p.st.label.Render(f.Label + ":" + strings.Repeat(" ", width-len(f.Label)))
		fmt.Fprintf(p.w, "  %s %s\n", label, p.st.value.Render(f.Value))
	}
}

// Table prints rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	fmt.Fprintln(p.w, p.table(headers, rows))
}

func (p *Printer) table(headers []string, rows [][]string) string {
	st := p.st
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			return st.cell
		}).
		String()
}

// Note prints a de-emphasized line.
func (p *Printer) Note(format string, args ...any) {
	fmt.Fprintln(p.w, p.st.muted.Render(fmt.Sprintf(format, args...)))
}

// OK prints a success line prefixed with a check mark.
func (p *Printer) OK(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.st.good.Render(iconOK), fmt.Sprintf(format, args...))
}

// Fail prints a failure line prefixed with a cross.
func (p *Printer) Fail(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.st.bad.Render(iconFailed), fmt.Sprintf(format, args...))
}

// Error prints err as an error line.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.w, "%s %v\n", p.st.bad.Bold(true).Render("error:"), err)
}
