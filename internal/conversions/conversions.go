// Package conversions turns driving-stack messages into marker arrays.
//
// Every function takes the visualization offset and returns geometry in the
// visualization_offset frame, i.e. world coordinates minus the offset. The
// offset keeps coordinates small so viewers using float32 do not lose
// precision far from the map origin.
package conversions

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/drive-visualizer/internal/glyph"
	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
)

// DefaultTextCell is the edge length in metres of one glyph pixel.
const DefaultTextCell = 0.15

// Local shifts a world position into the offset frame.
func Local(x, y float64, offset r2.Vec) r2.Vec {
	return r2.Sub(r2.Vec{X: x, Y: y}, offset)
}

func point(p msgs.Point2, offset r2.Vec, z float64) marker.Point {
	v := Local(p.X, p.Y, offset)
	return marker.Point{X: v.X, Y: v.Y, Z: z}
}

func points(ps []msgs.Point2, offset r2.Vec, z float64) []marker.Point {
	out := make([]marker.Point, len(ps))
	for i, p := range ps {
		out[i] = point(p, offset, z)
	}
	return out
}

func lineStrip(ns string, id int, pts []marker.Point, width float64, c marker.Color) marker.Marker {
	m := marker.New(ns, id, marker.TypeLineStrip)
	m.Points = pts
	m.Scale = marker.Vector3{X: width}
	m.Color = c
	return m
}

// ribbon fills the area between two polylines with triangles. Extra
// vertices on the longer side are ignored.
func ribbon(ns string, id int, left, right []marker.Point, c marker.Color) (marker.Marker, bool) {
	n := min(len(left), len(right))
	if n < 2 {
		return marker.Marker{}, false
	}
	m := marker.New(ns, id, marker.TypeTriangleList)
	m.Scale = marker.Vector3{X: 1, Y: 1, Z: 1}
	m.Color = c
	m.Points = make([]marker.Point, 0, (n-1)*6)
	for i := 0; i < n-1; i++ {
		m.Points = append(m.Points,
			left[i], right[i], left[i+1],
			right[i], right[i+1], left[i+1],
		)
	}
	return m, true
}

// TextMarker spells text with the glyph font as a CUBE_LIST. The anchor is
// the lower-left corner of the first character; text runs along +X.
func TextMarker(ns string, id int, text string, anchor marker.Point, cell float64, c marker.Color) marker.Marker {
	if cell <= 0 {
		cell = DefaultTextCell
	}
	m := marker.New(ns, id, marker.TypeCubeList)
	m.Scale = marker.Vector3{X: cell * 0.9, Y: cell * 0.9, Z: cell * 0.9}
	m.Color = c
	m.Text = text
	for _, cl := range glyph.Rasterize(text) {
		m.Points = append(m.Points, marker.Point{
			X: anchor.X + float64(cl.Col)*cell,
			Y: anchor.Y + float64(glyph.Height-1-cl.Row)*cell,
			Z: anchor.Z,
		})
	}
	return m
}

// TextWidth returns the rendered width of text in metres.
func TextWidth(text string, cell float64) float64 {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return float64(n*glyph.Advance-1) * cell
}

func centroid(ps []msgs.Point2) msgs.Point2 {
	var c msgs.Point2
	if len(ps) == 0 {
		return c
	}
	for _, p := range ps {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(ps))
	c.Y /= float64(len(ps))
	return c
}
