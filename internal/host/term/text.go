package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// drawText writes s at (x, y), clipped to width cells. Wide runes take two
// cells; the second holds rune 0. Returns the number of cells written.
func drawText(b Backend, x, y, width int, s string, style tcell.Style) int {
	col := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > width {
			break
		}
		b.SetCell(x+col, y, Cell{Rune: r, Style: style})
		if w == 2 {
			b.SetCell(x+col+1, y, Cell{Rune: 0, Style: style})
		}
		col += w
	}
	return col
}

// fillRow paints cells [x, x+width) of row y.
func fillRow(b Backend, x, y, width int, style tcell.Style) {
	for i := 0; i < width; i++ {
		b.SetCell(x+i, y, Cell{Rune: ' ', Style: style})
	}
}

// fitText truncates s to width cells with an ellipsis.
func fitText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// textWidth returns the display width of s.
func textWidth(s string) int {
	return runewidth.StringWidth(s)
}
