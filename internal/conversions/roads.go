package conversions

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
)

var laneColors = map[string]marker.Color{
	"driving":  marker.Gray.WithAlpha(0.35),
	"biking":   {R: 0.6, G: 0.2, B: 0.2, A: 0.35},
	"sidewalk": {R: 0.7, G: 0.7, B: 0.5, A: 0.35},
	"parking":  {R: 0.2, G: 0.3, B: 0.6, A: 0.35},
}

// MapToBorders draws the left and right border of every lane.
func MapToBorders(m msgs.Map, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	id := 0
	for _, road := range m.Roads {
		for _, lane := range road.Lanes {
			if len(lane.LeftBorder) > 1 {
				out.Add(lineStrip("left_border", id, points(lane.LeftBorder, offset, 0.05), 0.12, marker.White))
				id++
			}
			if len(lane.RightBorder) > 1 {
				out.Add(lineStrip("right_border", id, points(lane.RightBorder, offset, 0.05), 0.12, marker.White))
				id++
			}
		}
	}
	return out
}

// MapToMarkers draws lane surfaces coloured by lane type and their centre
// lines.
func MapToMarkers(m msgs.Map, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	id := 0
	for _, road := range m.Roads {
		for _, lane := range road.Lanes {
			c, ok := laneColors[lane.Type]
			if !ok {
				c = laneColors["driving"]
			}
			if area, ok := ribbon(fmt.Sprintf("lane_%d", lane.ID), id, points(lane.LeftBorder, offset, 0), points(lane.RightBorder, offset, 0), c); ok {
				out.Add(area)
				id++
			}
			if len(lane.Center) > 1 {
				out.Add(lineStrip("lane_center", id, points(lane.Center, offset, 0.02), 0.05, marker.Yellow.WithAlpha(0.5)))
				id++
			}
		}
	}
	return out
}

// RouteToMarkers draws the route centreline with start and destination
// markers.
func RouteToMarkers(r msgs.Route, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	if len(r.Center) > 1 {
		pts := make([]marker.Point, len(r.Center))
		for i, p := range r.Center {
			pts[i] = point(msgs.Point2{X: p.X, Y: p.Y}, offset, 0.1)
		}
		out.Add(lineStrip("route", 0, pts, 0.6, marker.Green.WithAlpha(0.5)))
	}
	start := marker.New("route_start", 1, marker.TypeSphere)
	start.Pose.Position = point(r.Start, offset, 0.5)
	start.Scale = marker.Vector3{X: 1, Y: 1, Z: 1}
	start.Color = marker.Green
	dest := marker.New("route_destination", 2, marker.TypeSphere)
	dest.Pose.Position = point(r.Destination, offset, 0.5)
	dest.Scale = marker.Vector3{X: 1, Y: 1, Z: 1}
	dest.Color = marker.Red
	out.Add(start, dest)
	return out
}

// GoalToMarkers draws the mission goal as a pillar with a text label.
func GoalToMarkers(g msgs.GoalPoint, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	pillar := marker.New("goal", 0, marker.TypeCylinder)
	pillar.Pose.Position = point(msgs.Point2{X: g.X, Y: g.Y}, offset, 1.5)
	pillar.Scale = marker.Vector3{X: 1, Y: 1, Z: 3}
	pillar.Color = marker.Magenta.WithAlpha(0.8)
	out.Add(pillar)

	label := g.Label
	if label == "" {
		label = "GOAL"
	}
	anchor := pillar.Pose.Position
	anchor.X -= TextWidth(label, 0.3) / 2
	anchor.Z = 3.5
	out.Add(TextMarker("goal_label", 1, label, anchor, 0.3, marker.Magenta))
	return out
}

// SafetyCorridorToMarkers draws both corridor borders and a translucent fill.
func SafetyCorridorToMarkers(c msgs.SafetyCorridor, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	left := points(c.LeftBorder, offset, 0.15)
	right := points(c.RightBorder, offset, 0.15)
	if len(left) > 1 {
		out.Add(lineStrip("corridor_left", 0, left, 0.2, marker.Cyan))
	}
	if len(right) > 1 {
		out.Add(lineStrip("corridor_right", 1, right, 0.2, marker.Cyan))
	}
	if area, ok := ribbon("corridor_area", 2, left, right, marker.Cyan.WithAlpha(0.15)); ok {
		out.Add(area)
	}
	return out
}

// CautionZoneToMarkers outlines the zone polygon and labels it at its
// centroid.
func CautionZoneToMarkers(z msgs.CautionZone, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	if len(z.Polygon) < 2 {
		return out
	}
	outline := points(z.Polygon, offset, 0.2)
	outline = append(outline, outline[0])
	out.Add(lineStrip("caution_zone", 0, outline, 0.3, marker.Orange))

	if z.Label != "" {
		anchor := point(centroid(z.Polygon), offset, 0.5)
		anchor.X -= TextWidth(z.Label, 0.25) / 2
		out.Add(TextMarker("caution_zone_label", 1, z.Label, anchor, 0.25, marker.Orange))
	}
	return out
}

// WaypointsToMarkers draws remote-operation waypoints and the path through
// them.
func WaypointsToMarkers(w msgs.Waypoints, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	if len(w.Points) == 0 {
		return out
	}
	pts := points(w.Points, offset, 0.3)
	spheres := marker.New("waypoints", 0, marker.TypeSphereList)
	spheres.Points = pts
	spheres.Scale = marker.Vector3{X: 0.6, Y: 0.6, Z: 0.6}
	spheres.Color = marker.Blue
	out.Add(spheres)
	if len(pts) > 1 {
		out.Add(lineStrip("waypoint_path", 1, pts, 0.15, marker.Blue.WithAlpha(0.6)))
	}
	return out
}

// TrafficSignalsToMarkers draws each signal head coloured by phase with the
// phase spelled underneath.
func TrafficSignalsToMarkers(s msgs.TrafficSignals, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	for i, sig := range s.Signals {
		c := signalColor(sig.State)
		head := marker.New("traffic_signal", 2*i, marker.TypeSphere)
		head.Pose.Position = point(msgs.Point2{X: sig.X, Y: sig.Y}, offset, 3)
		head.Scale = marker.Vector3{X: 0.8, Y: 0.8, Z: 0.8}
		head.Color = c
		out.Add(head)

		text := string(sig.State)
		if text == "" {
			text = string(msgs.SignalUnknown)
		}
		anchor := head.Pose.Position
		anchor.X -= TextWidth(text, 0.12) / 2
		anchor.Z = 2.2
		out.Add(TextMarker("traffic_signal_state", 2*i+1, text, anchor, 0.12, c))
	}
	return out
}

func signalColor(s msgs.SignalState) marker.Color {
	switch s {
	case msgs.SignalRed:
		return marker.Red
	case msgs.SignalYellow:
		return marker.Yellow
	case msgs.SignalGreen:
		return marker.Green
	default:
		return marker.Gray
	}
}
