package conversions

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
)

var classColors = map[string]marker.Color{
	"car":        {R: 0.2, G: 0.6, B: 1, A: 0.9},
	"truck":      {R: 0.1, G: 0.3, B: 0.8, A: 0.9},
	"bus":        {R: 0.1, G: 0.3, B: 0.8, A: 0.9},
	"bicycle":    {R: 1, G: 0.8, B: 0.1, A: 0.9},
	"pedestrian": {R: 1, G: 0.4, B: 0.7, A: 0.9},
}

type participantStyle struct {
	ns       string
	labels   bool
	override *marker.Color
}

// TrafficParticipantsToMarkers draws decision-relevant participants with
// their ID and predicted trajectory.
func TrafficParticipantsToMarkers(set msgs.TrafficParticipantSet, offset r2.Vec) marker.MarkerArray {
	return participantsToMarkers(set, offset, participantStyle{ns: "traffic_participant", labels: true})
}

// IgnoredParticipantsToMarkers draws participants the planner ignored as
// unlabelled gray boxes.
func IgnoredParticipantsToMarkers(set msgs.TrafficParticipantSet, offset r2.Vec) marker.MarkerArray {
	gray := marker.Gray.WithAlpha(0.4)
	return participantsToMarkers(set, offset, participantStyle{ns: "ignored_participant", override: &gray})
}

func participantsToMarkers(set msgs.TrafficParticipantSet, offset r2.Vec, style participantStyle) marker.MarkerArray {
	var out marker.MarkerArray
	id := 0
	for _, p := range set.Participants {
		c, ok := classColors[p.Classification]
		if !ok {
			c = marker.Color{R: 0.6, G: 0.6, B: 0.9, A: 0.9}
		}
		if style.override != nil {
			c = *style.override
		}

		length, width, height := p.Length, p.Width, p.Height
		if length <= 0 {
			length = 4.5
		}
		if width <= 0 {
			width = 2
		}
		if height <= 0 {
			height = 1.5
		}

		box := marker.New(style.ns, id, marker.TypeCube)
		box.Pose.Position = point(p.State.Position(), offset, height/2)
		box.Pose.Orientation = marker.FromYaw(p.State.YawAngle)
		box.Scale = marker.Vector3{X: length, Y: width, Z: height}
		box.Color = c
		out.Add(box)
		id++

		if style.labels {
			label := strconv.Itoa(p.ID)
			anchor := box.Pose.Position
			anchor.X -= TextWidth(label, 0.15) / 2
			anchor.Z = height + 0.5
			out.Add(TextMarker(style.ns+"_id", id, label, anchor, 0.15, marker.White))
			id++

			if p.Trajectory != nil && len(p.Trajectory.States) > 1 {
				out.Add(lineStrip(style.ns+"_trajectory", id, statePoints(p.Trajectory.States, offset, 0.2), 0.15, c.WithAlpha(0.6)))
				id++
			}
		}
	}
	return out
}

// TrafficPredictionToMarkers draws each predicted path with opacity
// following its probability.
func TrafficPredictionToMarkers(tp msgs.TrafficPrediction, offset r2.Vec) marker.MarkerArray {
	var out marker.MarkerArray
	for i, path := range tp.Paths {
		if len(path.Trajectory.States) < 2 {
			continue
		}
		alpha := float32(math.Max(0.1, math.Min(1, path.Probability)))
		out.Add(lineStrip("prediction", i, statePoints(path.Trajectory.States, offset, 0.25), 0.2, marker.Orange.WithAlpha(alpha)))
	}
	return out
}
