package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// textTable lays out rows in space-separated columns sized by display
// width. Columns listed in right are right-aligned.
type textTable struct {
	headers []string
	rows    [][]string
	right   map[int]bool
}

func (t textTable) columnWidths() []int {
	cols := len(t.headers)
	for _, row := range t.rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t textTable) lines() []string {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.rows)+1)
	if len(t.headers) > 0 {
		out = append(out, t.line(t.headers, widths))
	}
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t textTable) line(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		gap := strings.Repeat(" ", max(0, width-displayWidth(cell)))
		if t.right[i] {
			cells[i] = gap + cell
		} else {
			cells[i] = cell + gap
		}
	}
	return strings.Join(cells, " ")
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
