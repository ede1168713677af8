package visualizer

import "strings"

// Channel is one of the fixed visualization categories. Each channel owns
// exactly one marker payload and one output topic.
type Channel int

const (
	ChannelBorders Channel = iota
	ChannelLocalMap
	ChannelSafetyCorridor
	ChannelIgnoredParticipants
	ChannelTrafficPrediction
	ChannelRoute
	ChannelTrafficDecision
	ChannelDrivenPath
	ChannelTrajectoryDecision
	ChannelPlannedTrajectory
	ChannelControllerTrajectory
	ChannelEgoVehicle
	ChannelGoal
	ChannelTrafficSignals
	ChannelTrajectorySuggestion
	ChannelRemoteOperationWaypoints
	ChannelCautionZones

	numChannels
)

var channelNames = [numChannels]string{
	ChannelBorders:                  "borders",
	ChannelLocalMap:                 "local_map",
	ChannelSafetyCorridor:           "safety_corridor",
	ChannelIgnoredParticipants:      "ignored_participants",
	ChannelTrafficPrediction:        "traffic_prediction",
	ChannelRoute:                    "route",
	ChannelTrafficDecision:          "traffic_decision",
	ChannelDrivenPath:               "driven_path",
	ChannelTrajectoryDecision:       "trajectory_decision",
	ChannelPlannedTrajectory:        "planned_trajectory",
	ChannelControllerTrajectory:     "controller_trajectory",
	ChannelEgoVehicle:               "ego_vehicle",
	ChannelGoal:                     "goal",
	ChannelTrafficSignals:           "traffic_signals",
	ChannelTrajectorySuggestion:     "trajectory_suggestion",
	ChannelRemoteOperationWaypoints: "remote_operation_waypoints",
	ChannelCautionZones:             "caution_zones",
}

// Channels returns every channel in publish order.
func Channels() []Channel {
	out := make([]Channel, numChannels)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// Valid reports whether c is one of the defined channels.
func (c Channel) Valid() bool {
	return c >= 0 && c < numChannels
}

// String returns the channel name, e.g. "driven_path".
func (c Channel) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return channelNames[c]
}

// Topic returns the output topic the channel publishes on.
func (c Channel) Topic() string {
	return "visualization_" + c.String()
}

// ParseChannel maps a channel name or its topic back to the Channel.
func ParseChannel(s string) (Channel, bool) {
	s = strings.TrimPrefix(s, "visualization_")
	for i, name := range channelNames {
		if name == s {
			return Channel(i), true
		}
	}
	return 0, false
}

// TrajectoryKind names one of the trajectory streams. Each kind is drawn on
// the channel of the same name and republished in columnar form.
type TrajectoryKind int

const (
	TrajectoryDecision TrajectoryKind = iota
	PlannedTrajectory
	ControllerTrajectory
	TrajectorySuggestion

	numTrajectoryKinds
)

var trajectoryChannels = [numTrajectoryKinds]Channel{
	TrajectoryDecision:   ChannelTrajectoryDecision,
	PlannedTrajectory:    ChannelPlannedTrajectory,
	ControllerTrajectory: ChannelControllerTrajectory,
	TrajectorySuggestion: ChannelTrajectorySuggestion,
}

// TrajectoryKinds returns every trajectory kind.
func TrajectoryKinds() []TrajectoryKind {
	out := make([]TrajectoryKind, numTrajectoryKinds)
	for i := range out {
		out[i] = TrajectoryKind(i)
	}
	return out
}

// Channel returns the marker channel the kind is drawn on.
func (k TrajectoryKind) Channel() Channel {
	if k < 0 || k >= numTrajectoryKinds {
		return -1
	}
	return trajectoryChannels[k]
}

// String returns the kind name, which is also its input topic.
func (k TrajectoryKind) String() string {
	return k.Channel().String()
}

// Topic returns the topic the transposed trajectory is republished on.
func (k TrajectoryKind) Topic() string {
	return "vis_traj/" + k.String()
}

// Non-marker output topics.
const (
	TopicMap        = "map"
	TopicMapCloud   = "map_cloud"
	TopicTransforms = "tf"
)

// OutputTopics lists every topic the visualizer publishes.
func OutputTopics() []string {
	topics := make([]string, 0, int(numChannels)+int(numTrajectoryKinds)+3)
	for _, c := range Channels() {
		topics = append(topics, c.Topic())
	}
	topics = append(topics, TopicMap, TopicMapCloud)
	for _, k := range TrajectoryKinds() {
		topics = append(topics, k.Topic())
	}
	return append(topics, TopicTransforms)
}
