package monitor

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

// Plot size of the marker rendering.
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 8 * vg.Inch
)

// markerPoints flattens an array into planar points in the visualization
// frame. Line and point list markers contribute each vertex, others their
// pose.
func markerPoints(arr marker.MarkerArray) plotter.XYs {
	var pts plotter.XYs
	for _, m := range arr.Markers {
		if m.Action != marker.ActionAdd {
			continue
		}
		if len(m.Points) == 0 {
			pts = append(pts, plotter.XY{X: m.Pose.Position.X, Y: m.Pose.Position.Y})
			continue
		}
		for _, p := range m.Points {
			pts = append(pts, plotter.XY{X: m.Pose.Position.X + p.X, Y: m.Pose.Position.Y + p.Y})
		}
	}
	return pts
}

func toRGBA(c marker.Color) color.Color {
	clamp := func(v float32) uint8 {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	a := c.A
	if a <= 0 {
		a = 1
	}
	return color.NRGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(a)}
}

// RenderMarkersPNG plots the markers of the given channels (all channels
// when empty) as a PNG. Each channel is one scatter series in the colour of
// its first marker.
func RenderMarkersPNG(snap visualizer.Snapshot, channels []visualizer.Channel) ([]byte, error) {
	if len(channels) == 0 {
		channels = visualizer.Channels()
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Markers (%s, flush %d)", snap.Phase, snap.Flushes)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	for _, ch := range channels {
		arr := snap.Channels[ch]
		pts := markerPoints(arr)
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch, err)
		}
		s.GlyphStyle.Color = toRGBA(arr.Markers[0].Color)
		s.GlyphStyle.Radius = vg.Points(1.5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(ch.String(), s)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
