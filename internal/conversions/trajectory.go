package conversions

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
)

func statePoints(states []msgs.VehicleState, offset r2.Vec, z float64) []marker.Point {
	out := make([]marker.Point, len(states))
	for i, s := range states {
		out[i] = point(s.Position(), offset, z)
	}
	return out
}

// speedColor maps v in [0, vmax] onto a blue→green→red ramp.
func speedColor(v, vmax float64) marker.Color {
	if vmax <= 0 {
		return marker.Green
	}
	t := math.Max(0, math.Min(1, v/vmax))
	if t < 0.5 {
		return marker.Color{G: float32(2 * t), B: float32(1 - 2*t), A: 1}
	}
	return marker.Color{R: float32(2*t - 1), G: float32(2 - 2*t), A: 1}
}

// TrajectoryToMarkers draws a trajectory as a line strip with per-vertex
// colour following longitudinal speed, plus a heading arrow at its start.
func TrajectoryToMarkers(t msgs.Trajectory, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	if len(t.States) == 0 {
		return out
	}
	ns := t.Label
	if ns == "" {
		ns = "trajectory"
	}

	if len(t.States) > 1 {
		tr := Transpose(t)
		vmax := floats.Max(tr.Vx)
		strip := lineStrip(ns, 0, statePoints(t.States, offset, 0.3), 0.25, marker.White)
		strip.Colors = make([]marker.Color, len(t.States))
		for i, v := range tr.Vx {
			strip.Colors[i] = speedColor(v, vmax)
		}
		out.Add(strip)
	}

	first := t.States[0]
	arrow := marker.New(ns+"_heading", 1, marker.TypeArrow)
	arrow.Pose.Position = point(first.Position(), offset, 0.3)
	arrow.Pose.Orientation = marker.FromYaw(first.YawAngle)
	arrow.Scale = marker.Vector3{X: 2, Y: 0.2, Z: 0.2}
	arrow.Color = marker.White
	out.Add(arrow)
	return out
}

// Transpose converts a trajectory into columns.
func Transpose(t msgs.Trajectory) msgs.TrajectoryTranspose {
	n := len(t.States)
	tr := msgs.TrajectoryTranspose{
		Label:         t.Label,
		Time:          make([]float64, n),
		X:             make([]float64, n),
		Y:             make([]float64, n),
		YawAngle:      make([]float64, n),
		Vx:            make([]float64, n),
		SteeringAngle: make([]float64, n),
		Ax:            make([]float64, n),
	}
	for i, s := range t.States {
		tr.Time[i] = s.Time
		tr.X[i] = s.X
		tr.Y[i] = s.Y
		tr.YawAngle[i] = s.YawAngle
		tr.Vx[i] = s.Vx
		tr.SteeringAngle[i] = s.SteeringAngle
		tr.Ax[i] = s.Ax
	}
	return tr
}
