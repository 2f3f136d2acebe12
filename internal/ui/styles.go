// Package ui holds terminal styling helpers for the drc CLI.
package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/groblegark/dynrec/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent     = 74  // blue
	colorMuted      = 245 // medium gray
	colorPublished  = 70  // green
	colorDeprecated = 245 // gray
	colorDraft      = 178 // yellow
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// RenderStatus colors a schema status by its lifecycle state.
func RenderStatus(status model.SchemaStatus) string {
	s := status.String()
	if noColor {
		return s
	}
	color := colorDraft
	switch status {
	case model.SchemaPublished:
		color = colorPublished
	case model.SchemaDeprecated:
		color = colorDeprecated
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// Table is a thin tabwriter wrapper for aligned CLI output.
type Table struct {
	w *tabwriter.Writer
}

// NewTable writes tab-aligned rows to out.
func NewTable(out io.Writer) *Table {
	return &Table{w: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)}
}

// Row writes one row of cells.
func (t *Table) Row(cells ...any) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(t.w, "\t")
		}
		fmt.Fprint(t.w, c)
	}
	fmt.Fprintln(t.w)
}

// Flush renders the accumulated rows.
func (t *Table) Flush() {
	_ = t.w.Flush()
}
