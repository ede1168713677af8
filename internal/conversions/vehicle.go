package conversions

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
)

// Ego body dimensions in metres. The reference point is the rear axle.
const (
	egoLength   = 4.7
	egoWidth    = 1.9
	egoHeight   = 1.5
	egoRearAxle = 1.0
)

// StateBufferToMarkers draws the recently driven path.
func StateBufferToMarkers(states []msgs.VehicleState, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	if len(states) < 2 {
		return out
	}
	out.Add(lineStrip("driven_path", 0, statePoints(states, offset, 0.05), 0.3, marker.Blue.WithAlpha(0.7)))
	return out
}

// StateToMarkers draws the ego vehicle body, a heading arrow and a speed
// readout.
func StateToMarkers(s msgs.VehicleState, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	sin, cos := math.Sincos(s.YawAngle)
	shift := egoLength/2 - egoRearAxle
	center := Local(s.X+cos*shift, s.Y+sin*shift, offset)

	body := marker.New("ego_vehicle", 0, marker.TypeCube)
	body.Pose.Position = marker.Point{X: center.X, Y: center.Y, Z: egoHeight / 2}
	body.Pose.Orientation = marker.FromYaw(s.YawAngle)
	body.Scale = marker.Vector3{X: egoLength, Y: egoWidth, Z: egoHeight}
	body.Color = marker.Color{R: 0.9, G: 0.9, B: 0.9, A: 0.9}
	out.Add(body)

	heading := marker.New("ego_heading", 1, marker.TypeArrow)
	heading.Pose.Position = point(s.Position(), offset, egoHeight+0.1)
	heading.Pose.Orientation = body.Pose.Orientation
	heading.Scale = marker.Vector3{X: egoLength / 2, Y: 0.25, Z: 0.25}
	heading.Color = marker.Green
	out.Add(heading)

	speed := fmt.Sprintf("%.0f KMH", math.Hypot(s.Vx, s.Vy)*3.6)
	anchor := body.Pose.Position
	anchor.X -= TextWidth(speed, 0.12) / 2
	anchor.Z = egoHeight + 0.8
	out.Add(TextMarker("ego_speed", 2, speed, anchor, 0.12, marker.White))
	return out
}
