// Package table renders simple ASCII tables. Cell widths ignore ANSI color
// sequences so colored cells stay aligned.
package table

import (
	"io"
	"regexp"
	"strings"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

type Table struct {
	w           io.Writer
	header      []string
	rows        [][]string
	align       []Alignment
	headerAlign []Alignment
}

func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.align = align
	return t
}

func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func width(s string) int {
	return len([]rune(stripAnsi(s)))
}

func (t *Table) widths() []int {
	n := len(t.header)
	for _, row := range t.rows {
		n = max(n, len(row))
	}
	widths := make([]int, n)
	for i, h := range t.header {
		widths[i] = width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], width(cell))
		}
	}
	return widths
}

func pad(s string, w int, a Alignment) string {
	gap := w - width(s)
	switch a {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

func alignment(aligns []Alignment, i int) Alignment {
	if i < len(aligns) {
		return aligns[i]
	}
	return AlignLeft
}

func (t *Table) line(sb *strings.Builder, cells []string, widths []int, aligns []Alignment) {
	sb.WriteString("|")
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		sb.WriteString(" " + pad(cell, w, alignment(aligns, i)) + " |")
	}
	sb.WriteString("\n")
}

// Render writes the table.
func (t *Table) Render() error {
	widths := t.widths()
	var sep strings.Builder
	sep.WriteString("+")
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2) + "+")
	}
	sep.WriteString("\n")

	var sb strings.Builder
	sb.WriteString(sep.String())
	if len(t.header) > 0 {
		t.line(&sb, t.header, widths, t.headerAlign)
		sb.WriteString(sep.String())
	}
	for _, row := range t.rows {
		t.line(&sb, row, widths, t.align)
	}
	sb.WriteString(sep.String())
	_, err := io.WriteString(t.w, sb.String())
	return err
}
