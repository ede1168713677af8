package marker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromYaw(t *testing.T) {
	q := FromYaw(0)
	assert.InDelta(t, 1.0, q.W, 1e-12)
	assert.InDelta(t, 0.0, q.Z, 1e-12)

	q = FromYaw(math.Pi / 2)
	assert.InDelta(t, math.Sqrt2/2, q.W, 1e-9)
	assert.InDelta(t, math.Sqrt2/2, q.Z, 1e-9)
	assert.InDelta(t, 0.0, q.X, 1e-12)
	assert.InDelta(t, 0.0, q.Y, 1e-12)

	for _, yaw := range []float64{-3, -1.2, -0.1, 0.4, 1.7, 3.1} {
		if got := FromYaw(yaw).Yaw(); math.Abs(got-yaw) > 1e-9 {
			t.Errorf("FromYaw(%v).Yaw() = %v", yaw, got)
		}
	}
}

func TestMarkerArray_Clone(t *testing.T) {
	m := New("route", 3, TypeLineStrip)
	m.Points = []Point{{X: 1}, {X: 2}}
	var a MarkerArray
	a.Add(m)

	c := a.Clone()
	c.Markers[0].Points[0].X = 42

	assert.Equal(t, 1.0, a.Markers[0].Points[0].X)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, FrameVisualizationOffset, c.Markers[0].FrameID)
	assert.Equal(t, Identity(), c.Markers[0].Pose.Orientation)
}

func TestMarkerArray_CloneEmpty(t *testing.T) {
	var a MarkerArray
	assert.Equal(t, 0, a.Clone().Len())
}
