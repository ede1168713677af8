package stream

import (
	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

// Topic publishes values of one type on a fixed hub topic.
type Topic[T any] struct {
	hub  *Hub
	name string
}

// NewTopic returns a publisher for name.
func NewTopic[T any](hub *Hub, name string) Topic[T] {
	return Topic[T]{hub: hub, name: name}
}

// Name returns the topic name.
func (t Topic[T]) Name() string { return t.name }

// Publish implements visualizer.Publisher.
func (t Topic[T]) Publish(msg T) {
	t.hub.Publish(t.name, msg)
}

// transforms broadcasts frame transforms on the tf topic.
type transforms struct {
	hub *Hub
}

func (t transforms) SendTransform(tf marker.TransformStamped) {
	t.hub.Publish(visualizer.TopicTransforms, tf)
}

// Outputs returns aggregator outputs that publish every topic through hub.
func Outputs(hub *Hub) visualizer.Outputs {
	out := visualizer.Outputs{
		Markers:      make(map[visualizer.Channel]visualizer.Publisher[marker.MarkerArray]),
		Map:          NewTopic[marker.OccupancyGrid](hub, visualizer.TopicMap),
		MapCloud:     NewTopic[marker.PointCloud](hub, visualizer.TopicMapCloud),
		Trajectories: make(map[visualizer.TrajectoryKind]visualizer.Publisher[msgs.TrajectoryTranspose]),
		Transforms:   transforms{hub: hub},
	}
	for _, ch := range visualizer.Channels() {
		out.Markers[ch] = NewTopic[marker.MarkerArray](hub, ch.Topic())
	}
	for _, k := range visualizer.TrajectoryKinds() {
		out.Trajectories[k] = NewTopic[msgs.TrajectoryTranspose](hub, k.Topic())
	}
	return out
}
