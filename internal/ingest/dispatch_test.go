package ingest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

func envelope(topic, data string) []byte {
	return []byte(fmt.Sprintf(`{"topic":%q,"data":%s}`, topic, data))
}

func TestDispatcher_RoutesEveryTopic(t *testing.T) {
	tests := []struct {
		topic string
		data  string
		call  string
	}{
		{TopicVehicleState, `{"time":1,"x":5,"y":6}`, "pose"},
		{TopicLocalMap, `{"roads":[]}`, "map"},
		{TopicRoute, `{"start":{"x":1,"y":2}}`, "route"},
		{TopicGoal, `{"x":3,"y":4,"label":"depot"}`, "goal"},
		{TopicTrafficDecision, `{"participants":[{"id":1}]}`, "decision"},
		{TopicIgnored, `{"participants":[]}`, "ignored"},
		{TopicSafetyCorridor, `{"left_border":[],"right_border":[]}`, "corridor"},
		{TopicTrafficPrediction, `{"paths":[]}`, "prediction"},
		{TopicTrafficSignals, `{"signals":[{"id":1,"state":"red"}]}`, "signals"},
		{TopicCautionZones, `{"label":"school","polygon":[]}`, "caution"},
		{TopicWaypoints, `{"points":[{"x":1,"y":1}]}`, "waypoints"},
		{"trajectory_decision", `{"states":[]}`, "trajectory_decision"},
		{"planned_trajectory", `{"states":[]}`, "planned_trajectory"},
		{"controller_trajectory", `{"states":[]}`, "controller_trajectory"},
		{"trajectory_suggestion", `{"states":[]}`, "trajectory_suggestion"},
	}

	sink := newRecordingSink()
	d := NewDispatcher(sink)
	assert.Len(t, d.Topics(), len(tests))

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			require.NoError(t, d.Dispatch(envelope(tt.topic, tt.data)))
			assert.Contains(t, sink.last, tt.call)
		})
	}

	stats := d.Stats()
	assert.Equal(t, uint64(len(tests)), stats.Received)
	assert.Zero(t, stats.Unknown)
	assert.Zero(t, stats.Malformed)
	assert.Equal(t, uint64(1), stats.PerTopic[TopicGoal])
}

func TestDispatcher_DecodesPayload(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink)

	require.NoError(t, d.Dispatch(envelope(TopicVehicleState, `{"time":2.5,"x":5,"y":6,"yaw_angle":0.3,"vx":4}`)))
	require.NoError(t, d.Dispatch(envelope("planned_trajectory", `{"label":"p","states":[{"x":1},{"x":2}]}`)))

	require.Len(t, sink.poses, 1)
	assert.Equal(t, msgs.VehicleState{Time: 2.5, X: 5, Y: 6, YawAngle: 0.3, Vx: 4}, sink.poses[0])
	traj := sink.trajs[visualizer.PlannedTrajectory]
	assert.Equal(t, "p", traj.Label)
	assert.Len(t, traj.States, 2)
}

func TestDispatcher_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not json", `hello`, ErrMalformed},
		{"no topic", `{"data":{}}`, ErrMalformed},
		{"no data", `{"topic":"route"}`, ErrMalformed},
		{"null data", `{"topic":"route","data":null}`, ErrMalformed},
		{"wrong data type", `{"topic":"route","data":"north"}`, ErrMalformed},
		{"wrong field type", `{"topic":"mission/goal_position","data":{"x":"far"}}`, ErrMalformed},
		{"unknown topic", `{"topic":"lidar/points","data":{}}`, ErrUnknownTopic},
	}

	sink := newRecordingSink()
	d := NewDispatcher(sink)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Dispatch([]byte(tt.in))
			require.Error(t, err)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	assert.Zero(t, sink.callCount(), "nothing should reach the sink")
	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Unknown)
	assert.Equal(t, uint64(len(tests)-1), stats.Malformed)
}

func TestDispatcher_FeedsAggregator(t *testing.T) {
	agg := visualizer.New(visualizer.Config{}, visualizer.Outputs{})
	d := NewDispatcher(agg)

	require.NoError(t, d.Dispatch(envelope(TopicVehicleState, `{"x":5,"y":5}`)))
	require.NoError(t, d.Dispatch(envelope(TopicGoal, `{"x":6,"y":5}`)))

	offset, ok := agg.Offset()
	require.True(t, ok)
	assert.Equal(t, 5.0, offset.X)
	assert.NotZero(t, agg.Snapshot().Channels[visualizer.ChannelGoal].Len())
}
