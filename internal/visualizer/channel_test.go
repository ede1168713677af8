package visualizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannels(t *testing.T) {
	chs := Channels()
	assert.Len(t, chs, 17)

	seen := make(map[string]bool)
	for _, ch := range chs {
		assert.True(t, ch.Valid())
		assert.False(t, seen[ch.String()], "duplicate channel %s", ch)
		seen[ch.String()] = true

		back, ok := ParseChannel(ch.Topic())
		assert.True(t, ok)
		assert.Equal(t, ch, back)
	}

	assert.Equal(t, "visualization_driven_path", ChannelDrivenPath.Topic())
	assert.Equal(t, "visualization_remote_operation_waypoints", ChannelRemoteOperationWaypoints.Topic())
	assert.Equal(t, "unknown", Channel(99).String())

	_, ok := ParseChannel("lidar")
	assert.False(t, ok)
}

func TestTrajectoryKinds(t *testing.T) {
	want := map[TrajectoryKind]string{
		TrajectoryDecision:   "vis_traj/trajectory_decision",
		PlannedTrajectory:    "vis_traj/planned_trajectory",
		ControllerTrajectory: "vis_traj/controller_trajectory",
		TrajectorySuggestion: "vis_traj/trajectory_suggestion",
	}
	kinds := TrajectoryKinds()
	assert.Len(t, kinds, len(want))
	for _, k := range kinds {
		assert.Equal(t, want[k], k.Topic())
		assert.Equal(t, k.String(), k.Channel().String())
	}
	assert.False(t, TrajectoryKind(-1).Channel().Valid())
}

func TestOutputTopics(t *testing.T) {
	topics := OutputTopics()
	assert.Len(t, topics, 17+2+4+1)
	assert.Contains(t, topics, TopicMap)
	assert.Contains(t, topics, TopicMapCloud)
	assert.Contains(t, topics, TopicTransforms)
	assert.Contains(t, topics, "vis_traj/planned_trajectory")
	assert.Contains(t, topics, "visualization_borders")
}
