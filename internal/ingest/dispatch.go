// Package ingest decodes input messages from the driving stack and feeds
// them to the visualizer. Every transport carries the same JSON envelope:
//
//	{"topic": "vehicle_state/dynamic", "data": {...}}
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/drive-visualizer/internal/monitoring"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

var logf = monitoring.Prefixed("Ingest")

var (
	// ErrUnknownTopic is returned for envelopes addressed to a topic no
	// handler is registered for.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrMalformed is returned for input that is not a valid envelope or
	// whose data does not decode into the topic's message type.
	ErrMalformed = errors.New("malformed message")
)

// Input topics.
const (
	TopicVehicleState      = "vehicle_state/dynamic"
	TopicLocalMap          = "local_map"
	TopicRoute             = "route"
	TopicGoal              = "mission/goal_position"
	TopicTrafficDecision   = "traffic_decision"
	TopicIgnored           = "ignored_participants"
	TopicSafetyCorridor    = "safety_corridor"
	TopicTrafficPrediction = "traffic_prediction"
	TopicTrafficSignals    = "traffic_signals"
	TopicCautionZones      = "caution_zones"
	TopicWaypoints         = "remote_operation_waypoints"
)

// Envelope wraps one message with the topic it was published on.
type Envelope struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// Sink receives decoded messages. *visualizer.Aggregator implements it.
type Sink interface {
	OnPose(msgs.VehicleState)
	OnMap(msgs.Map)
	OnRoute(msgs.Route)
	OnGoal(msgs.GoalPoint)
	OnTrafficDecision(msgs.TrafficParticipantSet)
	OnIgnoredParticipants(msgs.TrafficParticipantSet)
	OnSafetyCorridor(msgs.SafetyCorridor)
	OnTrafficPrediction(msgs.TrafficPrediction)
	OnTrafficSignals(msgs.TrafficSignals)
	OnCautionZones(msgs.CautionZone)
	OnWaypoints(msgs.Waypoints)
	OnTrajectory(visualizer.TrajectoryKind, msgs.Trajectory)
}

var _ Sink = (*visualizer.Aggregator)(nil)

type handler func(json.RawMessage) error

// decodeInto returns a handler that decodes data as T and delivers it.
func decodeInto[T any](deliver func(T)) handler {
	return func(raw json.RawMessage) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		deliver(v)
		return nil
	}
}

// Dispatcher routes envelopes to a Sink by topic. It is safe for concurrent
// use by several transports.
type Dispatcher struct {
	handlers map[string]handler

	received  atomic.Uint64
	unknown   atomic.Uint64
	malformed atomic.Uint64

	perTopicMu sync.Mutex
	perTopic   map[string]uint64
}

// NewDispatcher registers a handler for every input topic.
func NewDispatcher(sink Sink) *Dispatcher {
	d := &Dispatcher{
		handlers: map[string]handler{
			TopicVehicleState:      decodeInto(sink.OnPose),
			TopicLocalMap:          decodeInto(sink.OnMap),
			TopicRoute:             decodeInto(sink.OnRoute),
			TopicGoal:              decodeInto(sink.OnGoal),
			TopicTrafficDecision:   decodeInto(sink.OnTrafficDecision),
			TopicIgnored:           decodeInto(sink.OnIgnoredParticipants),
			TopicSafetyCorridor:    decodeInto(sink.OnSafetyCorridor),
			TopicTrafficPrediction: decodeInto(sink.OnTrafficPrediction),
			TopicTrafficSignals:    decodeInto(sink.OnTrafficSignals),
			TopicCautionZones:      decodeInto(sink.OnCautionZones),
			TopicWaypoints:         decodeInto(sink.OnWaypoints),
		},
		perTopic: make(map[string]uint64),
	}
	for _, k := range visualizer.TrajectoryKinds() {
		d.handlers[k.String()] = decodeInto(func(t msgs.Trajectory) { sink.OnTrajectory(k, t) })
	}
	return d
}

// Topics returns the accepted input topics, sorted.
func (d *Dispatcher) Topics() []string {
	out := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Dispatch decodes one envelope and delivers it. Errors wrap ErrMalformed or
// ErrUnknownTopic.
func (d *Dispatcher) Dispatch(b []byte) error {
	d.received.Add(1)

	var env Envelope
	if err := json.Unmarshal(bytes.TrimSpace(b), &env); err != nil {
		d.malformed.Add(1)
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Topic == "" || len(env.Data) == 0 || string(env.Data) == "null" {
		d.malformed.Add(1)
		return fmt.Errorf("%w: envelope needs topic and data", ErrMalformed)
	}

	h, ok := d.handlers[env.Topic]
	if !ok {
		d.unknown.Add(1)
		return fmt.Errorf("%w: %q", ErrUnknownTopic, env.Topic)
	}
	if err := h(env.Data); err != nil {
		d.malformed.Add(1)
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Topic, err)
	}

	d.perTopicMu.Lock()
	d.perTopic[env.Topic]++
	d.perTopicMu.Unlock()
	return nil
}

// DispatcherStats counts dispatch outcomes.
type DispatcherStats struct {
	Received  uint64            `json:"received"`
	Unknown   uint64            `json:"unknown"`
	Malformed uint64            `json:"malformed"`
	PerTopic  map[string]uint64 `json:"per_topic"`
}

// Stats returns a copy of the counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.perTopicMu.Lock()
	perTopic := make(map[string]uint64, len(d.perTopic))
	for t, n := range d.perTopic {
		perTopic[t] = n
	}
	d.perTopicMu.Unlock()
	return DispatcherStats{
		Received:  d.received.Load(),
		Unknown:   d.unknown.Load(),
		Malformed: d.malformed.Load(),
		PerTopic:  perTopic,
	}
}
