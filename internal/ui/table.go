package ui

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// Table is a light-bordered table whose Flex column absorbs whatever width
// the other columns leave over. Cells in the flex column are truncated with
// an ellipsis; every other column keeps its natural single-line width.
type Table struct {
	Headers []string
	Rows    [][]string
	// Flex is the index of the column to truncate, or -1 for none.
	Flex int
	// Width overrides the terminal width when positive.
	Width int
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	flexWidth := t.flexWidth()
	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			if i == t.Flex && flexWidth > 0 {
				cell = runewidth.Truncate(strings.TrimSpace(cell), flexWidth, "...")
			}
			row[i] = cell
		}
		tw.AppendRow(row)
	}

	tw.Render()
}

// flexWidth reserves roughly three characters of border and padding per
// column and gives the flex column the rest, never less than 15.
func (t *Table) flexWidth() int {
	if t.Flex < 0 || t.Flex >= len(t.Headers) {
		return 0
	}

	width := t.Width
	if width <= 0 {
		width = TerminalWidth()
	}

	available := width - len(t.Headers)*3
	for col := range t.Headers {
		if col == t.Flex {
			continue
		}
		available -= t.columnWidth(col)
	}

	if available < 15 {
		available = 15
	}
	return available
}

func (t *Table) columnWidth(col int) int {
	widest := runewidth.StringWidth(t.Headers[col])
	for _, r := range t.Rows {
		if col < len(r) {
			if w := runewidth.StringWidth(r[col]); w > widest {
				widest = w
			}
		}
	}
	return widest
}
