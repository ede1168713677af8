// Package marker defines the drawable primitives published to viewers:
// marker arrays, occupancy grids, point clouds and frame transforms.
package marker

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Coordinate frames used by the visualizer.
const (
	FrameWorld               = "world"
	FrameVisualizationOffset = "visualization_offset"
	FrameEgoFollow           = "ego_follow_visualization"
)

// Type is the primitive kind of a marker. Values match the common
// visualization marker enumeration so viewers can map them directly.
type Type int

const (
	TypeArrow          Type = 0
	TypeCube           Type = 1
	TypeSphere         Type = 2
	TypeCylinder       Type = 3
	TypeLineStrip      Type = 4
	TypeLineList       Type = 5
	TypeCubeList       Type = 6
	TypeSphereList     Type = 7
	TypePoints         Type = 8
	TypeTextViewFacing Type = 9
	TypeTriangleList   Type = 11
)

// Action tells the viewer what to do with a marker.
type Action int

const (
	ActionAdd       Action = 0
	ActionDelete    Action = 2
	ActionDeleteAll Action = 3
)

// Point is a position in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector3 is a direction or extent in metres.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a unit rotation.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity returns the zero rotation.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// FromYaw returns the rotation of yaw radians about the Z axis.
func FromYaw(yaw float64) Quaternion {
	q := quat.Exp(quat.Number{Kmag: yaw / 2})
	return Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real}
}

// Yaw extracts the heading about the Z axis.
func (q Quaternion) Yaw() float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

// Pose places a marker in its frame.
type Pose struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Color is RGBA in [0,1].
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

// WithAlpha returns c with a different opacity.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

var (
	Red     = Color{R: 1, A: 1}
	Green   = Color{G: 1, A: 1}
	Blue    = Color{B: 1, A: 1}
	Yellow  = Color{R: 1, G: 1, A: 1}
	Orange  = Color{R: 1, G: 0.55, A: 1}
	Cyan    = Color{G: 1, B: 1, A: 1}
	Magenta = Color{R: 1, B: 1, A: 1}
	White   = Color{R: 1, G: 1, B: 1, A: 1}
	Gray    = Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	Black   = Color{A: 1}
)

// Marker is a single drawable primitive.
type Marker struct {
	Namespace   string  `json:"ns"`
	ID          int     `json:"id"`
	Type        Type    `json:"type"`
	Action      Action  `json:"action"`
	FrameID     string  `json:"frame_id"`
	Pose        Pose    `json:"pose"`
	Scale       Vector3 `json:"scale"`
	Color       Color   `json:"color"`
	Points      []Point `json:"points,omitempty"`
	Colors      []Color `json:"colors,omitempty"`
	Text        string  `json:"text,omitempty"`
	LifetimeSec float64 `json:"lifetime_sec,omitempty"`
	FrameLocked bool    `json:"frame_locked,omitempty"`
}

// New returns an ADD marker in the visualization offset frame with an
// identity orientation.
func New(ns string, id int, typ Type) Marker {
	return Marker{
		Namespace: ns,
		ID:        id,
		Type:      typ,
		Action:    ActionAdd,
		FrameID:   FrameVisualizationOffset,
		Pose:      Pose{Orientation: Identity()},
	}
}

// MarkerArray is the payload of one visualization channel.
type MarkerArray struct {
	Markers []Marker `json:"markers"`
}

// Add appends markers to the array.
func (a *MarkerArray) Add(m ...Marker) {
	a.Markers = append(a.Markers, m...)
}

// Len returns the number of markers.
func (a MarkerArray) Len() int {
	return len(a.Markers)
}

// Clone returns a deep copy so callers can hand the array to another
// goroutine without sharing backing slices.
func (a MarkerArray) Clone() MarkerArray {
	if a.Markers == nil {
		return MarkerArray{}
	}
	out := MarkerArray{Markers: make([]Marker, len(a.Markers))}
	for i, m := range a.Markers {
		if m.Points != nil {
			m.Points = append([]Point(nil), m.Points...)
		}
		if m.Colors != nil {
			m.Colors = append([]Color(nil), m.Colors...)
		}
		out.Markers[i] = m
	}
	return out
}

// OccupancyGrid is a row-major 2D grid. Cell values are 0..100 or -1 for
// unknown. Row 0 is the southern edge.
type OccupancyGrid struct {
	FrameID    string  `json:"frame_id"`
	StampNanos int64   `json:"stamp_ns"`
	Resolution float64 `json:"resolution"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Origin     Pose    `json:"origin"`
	Data       []int8  `json:"data"`
}

// PointCloud is an unordered set of points with a per-point intensity.
type PointCloud struct {
	FrameID    string    `json:"frame_id"`
	StampNanos int64     `json:"stamp_ns"`
	Points     []Point   `json:"points"`
	Intensity  []float32 `json:"intensity"`
}

// TransformStamped relates a child frame to its parent at a point in time.
type TransformStamped struct {
	StampNanos   int64      `json:"stamp_ns"`
	FrameID      string     `json:"frame_id"`
	ChildFrameID string     `json:"child_frame_id"`
	Translation  Vector3    `json:"translation"`
	Rotation     Quaternion `json:"rotation"`
}
