// Package glyph holds a fixed 5x7 bitmap font used to spell short labels
// (participant IDs, signal states, zone names) as marker point grids.
package glyph

import (
	"strings"
	"unicode"
)

const (
	// Width is the number of columns in a glyph cell.
	Width = 5
	// Height is the number of rows in a glyph cell.
	Height = 7
	// Advance is the horizontal distance between consecutive glyph origins.
	Advance = Width + 1
)

// Glyph is one character bitmap. Each row uses its low 5 bits; bit 4 is the
// leftmost column.
type Glyph [Height]uint8

// On reports whether the cell at (col, row) is lit. Row 0 is the top.
func (g Glyph) On(col, row int) bool {
	if col < 0 || col >= Width || row < 0 || row >= Height {
		return false
	}
	return g[row]&(1<<(Width-1-col)) != 0
}

var table = map[rune]Glyph{
	'A': {0b01110, 0b10001, 0b10001, 0b11111, 0b10001, 0b10001, 0b10001},
	'B': {0b11110, 0b10001, 0b10001, 0b11110, 0b10001, 0b10001, 0b11110},
	'C': {0b01110, 0b10001, 0b10000, 0b10000, 0b10000, 0b10001, 0b01110},
	'D': {0b11100, 0b10010, 0b10001, 0b10001, 0b10001, 0b10010, 0b11100},
	'E': {0b11111, 0b10000, 0b10000, 0b11110, 0b10000, 0b10000, 0b11111},
	'F': {0b11111, 0b10000, 0b10000, 0b11110, 0b10000, 0b10000, 0b10000},
	'G': {0b01110, 0b10001, 0b10000, 0b10011, 0b10001, 0b10001, 0b01111},
	'H': {0b10001, 0b10001, 0b10001, 0b11111, 0b10001, 0b10001, 0b10001},
	'I': {0b01110, 0b00100, 0b00100, 0b00100, 0b00100, 0b00100, 0b01110},
	'J': {0b00011, 0b00001, 0b00001, 0b00001, 0b10001, 0b10001, 0b01110},
	'K': {0b10001, 0b10010, 0b10100, 0b11000, 0b10100, 0b10010, 0b10001},
	'L': {0b10000, 0b10000, 0b10000, 0b10000, 0b10000, 0b10000, 0b11111},
	'M': {0b10001, 0b11011, 0b10101, 0b10101, 0b10001, 0b10001, 0b10001},
	'N': {0b10001, 0b10001, 0b11001, 0b10101, 0b10011, 0b10001, 0b10001},
	'O': {0b01110, 0b10001, 0b10001, 0b10001, 0b10001, 0b10001, 0b01110},
	'P': {0b11110, 0b10001, 0b10001, 0b11110, 0b10000, 0b10000, 0b10000},
	'Q': {0b01110, 0b10001, 0b10001, 0b10001, 0b10101, 0b10010, 0b01101},
	'R': {0b11110, 0b10001, 0b10001, 0b11110, 0b10100, 0b10010, 0b10001},
	'S': {0b01111, 0b10000, 0b10000, 0b01110, 0b00001, 0b00001, 0b11110},
	'T': {0b11111, 0b00100, 0b00100, 0b00100, 0b00100, 0b00100, 0b00100},
	'U': {0b10001, 0b10001, 0b10001, 0b10001, 0b10001, 0b10001, 0b01110},
	'V': {0b10001, 0b10001, 0b10001, 0b10001, 0b01010, 0b01010, 0b00100},
	'W': {0b10001, 0b10001, 0b10001, 0b10101, 0b10101, 0b10101, 0b01010},
	'X': {0b10001, 0b10001, 0b01010, 0b00100, 0b01010, 0b10001, 0b10001},
	'Y': {0b10001, 0b10001, 0b01010, 0b00100, 0b00100, 0b00100, 0b00100},
	'Z': {0b11111, 0b00001, 0b00010, 0b00100, 0b01000, 0b10000, 0b11111},
	'0': {0b01110, 0b10001, 0b10011, 0b10101, 0b11001, 0b10001, 0b01110},
	'1': {0b00100, 0b01100, 0b00100, 0b00100, 0b00100, 0b00100, 0b01110},
	'2': {0b01110, 0b10001, 0b00001, 0b00010, 0b00100, 0b01000, 0b11111},
	'3': {0b11111, 0b00010, 0b00100, 0b00010, 0b00001, 0b10001, 0b01110},
	'4': {0b00010, 0b00110, 0b01010, 0b10010, 0b11111, 0b00010, 0b00010},
	'5': {0b11111, 0b10000, 0b11110, 0b00001, 0b00001, 0b10001, 0b01110},
	'6': {0b00110, 0b01000, 0b10000, 0b11110, 0b10001, 0b10001, 0b01110},
	'7': {0b11111, 0b00001, 0b00010, 0b00100, 0b01000, 0b01000, 0b01000},
	'8': {0b01110, 0b10001, 0b10001, 0b01110, 0b10001, 0b10001, 0b01110},
	'9': {0b01110, 0b10001, 0b10001, 0b01111, 0b00001, 0b00010, 0b01100},
	'-': {0b00000, 0b00000, 0b00000, 0b01110, 0b00000, 0b00000, 0b00000},
	' ': {0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00000},
	'!': {0b00100, 0b00100, 0b00100, 0b00100, 0b00000, 0b00000, 0b00100},
	'.': {0b00000, 0b00000, 0b00000, 0b00000, 0b00000, 0b00110, 0b00110},
	':': {0b00000, 0b00110, 0b00110, 0b00000, 0b00110, 0b00110, 0b00000},
	'?': {0b01110, 0b10001, 0b00001, 0b00110, 0b00100, 0b00000, 0b00100},
}

// Lookup returns the bitmap for r. The second result is false when r is not
// part of the font; callers decide whether to skip or blank it.
func Lookup(r rune) (Glyph, bool) {
	g, ok := table[r]
	return g, ok
}

// Supported returns every character the font covers.
func Supported() []rune {
	out := make([]rune, 0, len(table))
	for r := range table {
		out = append(out, r)
	}
	return out
}

// Cell is a lit pixel in text space. Col grows to the right, Row grows
// downwards from the top of the line.
type Cell struct {
	Col int
	Row int
}

// Rasterize lays text out on a single baseline and returns the lit cells.
// Lower-case letters are folded to upper case; characters outside the font
// still advance the cursor so spacing is preserved.
func Rasterize(text string) []Cell {
	var cells []Cell
	i := 0
	for _, r := range text {
		g, ok := Lookup(unicode.ToUpper(r))
		if ok {
			for row := 0; row < Height; row++ {
				for col := 0; col < Width; col++ {
					if g.On(col, row) {
						cells = append(cells, Cell{Col: i*Advance + col, Row: row})
					}
				}
			}
		}
		i++
	}
	return cells
}

// Sketch renders text as Height lines of '#' and '.' characters.
func Sketch(text string) []string {
	n := len([]rune(text))
	if n == 0 {
		return nil
	}
	width := n*Advance - 1
	grid := make([][]byte, Height)
	for row := range grid {
		grid[row] = []byte(strings.Repeat(".", width))
	}
	for _, c := range Rasterize(text) {
		grid[c.Row][c.Col] = '#'
	}
	lines := make([]string, Height)
	for row := range grid {
		lines[row] = string(grid[row])
	}
	return lines
}
