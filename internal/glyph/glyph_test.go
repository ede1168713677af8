package glyph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_SupportedSet(t *testing.T) {
	want := "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789- !.:?"
	for _, r := range want {
		g, ok := Lookup(r)
		if !ok {
			t.Errorf("Lookup(%q) missing", r)
			continue
		}
		for row, mask := range g {
			if mask > 0b11111 {
				t.Errorf("Lookup(%q) row %d = %b uses more than 5 bits", r, row, mask)
			}
		}
	}
	assert.Len(t, Supported(), len([]rune(want)))
}

func TestLookup_Unsupported(t *testing.T) {
	for _, r := range []rune{'a', '#', '@', 'é', '\n', '_'} {
		if _, ok := Lookup(r); ok {
			t.Errorf("Lookup(%q) should report absence", r)
		}
	}
}

func TestGlyph_On(t *testing.T) {
	g, ok := Lookup('L')
	require.True(t, ok)

	assert.True(t, g.On(0, 0))
	assert.False(t, g.On(4, 0))
	assert.True(t, g.On(4, 6))
	assert.False(t, g.On(5, 6), "column outside the cell")
	assert.False(t, g.On(0, 7), "row outside the cell")
}

func TestRasterize_AdvancesUnsupported(t *testing.T) {
	plain := Rasterize("I")
	shifted := Rasterize("#I")
	require.Len(t, shifted, len(plain))
	for i := range plain {
		assert.Equal(t, plain[i].Col+Advance, shifted[i].Col)
		assert.Equal(t, plain[i].Row, shifted[i].Row)
	}
}

func TestRasterize_FoldsCase(t *testing.T) {
	assert.Equal(t, Rasterize("GO"), Rasterize("go"))
	assert.Empty(t, Rasterize("   "))
}

func TestSketch(t *testing.T) {
	got := Sketch("T-")
	want := []string{
		"#####......",
		"..#........",
		"..#........",
		"..#....###.",
		"..#........",
		"..#........",
		"..#........",
	}
	assert.Equal(t, want, got)
	assert.Nil(t, Sketch(""))
}
