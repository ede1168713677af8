// Package visualizer holds the render state of the visualization bridge: the
// latest marker payload of every channel, the latched visualization offset and
// the recent pose history. Input handlers overwrite state; Flush republishes
// all of it on a fixed cadence.
package visualizer

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/drive-visualizer/internal/conversions"
	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/monitoring"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/statebuffer"
	"github.com/banshee-data/drive-visualizer/internal/timeutil"
)

var logf = monitoring.Prefixed("Visualizer")

// Publisher delivers one message to its topic. Implementations must not
// block the caller.
type Publisher[T any] interface {
	Publish(msg T)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc[T any] func(msg T)

// Publish implements Publisher.
func (f PublisherFunc[T]) Publish(msg T) { f(msg) }

// TransformBroadcaster sends frame transforms.
type TransformBroadcaster interface {
	SendTransform(tf marker.TransformStamped)
}

// TransformFunc adapts a function to TransformBroadcaster.
type TransformFunc func(tf marker.TransformStamped)

// SendTransform implements TransformBroadcaster.
func (f TransformFunc) SendTransform(tf marker.TransformStamped) { f(tf) }

// MapRenderer produces the occupancy grid and map point cloud around the
// vehicle, in the visualization offset frame.
type MapRenderer interface {
	OccupancyGrid(offset r2.Vec, state msgs.VehicleState) (marker.OccupancyGrid, error)
	PointCloud(offset r2.Vec, state msgs.VehicleState) (marker.PointCloud, error)
}

// Outputs are the sinks the aggregator publishes to. Nil entries are skipped.
type Outputs struct {
	Markers      map[Channel]Publisher[marker.MarkerArray]
	Map          Publisher[marker.OccupancyGrid]
	MapCloud     Publisher[marker.PointCloud]
	Trajectories map[TrajectoryKind]Publisher[msgs.TrajectoryTranspose]
	Transforms   TransformBroadcaster
}

// Config controls an Aggregator.
type Config struct {
	// HistoryWindow is how far back the driven path reaches.
	HistoryWindow time.Duration

	// FlushInterval is the Run cadence.
	FlushInterval time.Duration

	// Clock stamps transforms and map messages. Defaults to the real clock.
	Clock timeutil.Clock

	// Maps renders the map layers on flush. Nil disables them.
	Maps MapRenderer
}

// Default values for Config.
const (
	DefaultHistoryWindow = 10 * time.Second
	DefaultFlushInterval = 100 * time.Millisecond
)

// Phase is the offset state of the aggregator.
type Phase int

const (
	PhaseNoPose Phase = iota
	PhasePoseReceived
)

func (p Phase) String() string {
	if p == PhasePoseReceived {
		return "pose_received"
	}
	return "no_pose"
}

// poseState is either noPose or *poseReceived. The offset exists only in the
// latter and never changes once set.
type poseState interface {
	phase() Phase
}

type noPose struct{}

func (noPose) phase() Phase { return PhaseNoPose }

type poseReceived struct {
	offset r2.Vec
	latest msgs.VehicleState
}

func (*poseReceived) phase() Phase { return PhasePoseReceived }

// Aggregator is the render state. All methods are safe for concurrent use;
// a single mutex serializes every handler and Flush.
type Aggregator struct {
	cfg Config
	out Outputs

	mu       sync.Mutex
	payloads [numChannels]marker.MarkerArray
	updates  [numChannels]uint64
	pose     poseState
	history  *statebuffer.Buffer
	flushes  uint64
}

// New returns an aggregator with every channel holding an empty array and no
// offset latched.
func New(cfg Config, out Outputs) *Aggregator {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Aggregator{
		cfg:     cfg,
		out:     out,
		pose:    noPose{},
		history: statebuffer.New(cfg.HistoryWindow),
	}
}

// offsetLocked returns the latched offset, or the origin before the first
// pose.
func (a *Aggregator) offsetLocked() r2.Vec {
	if p, ok := a.pose.(*poseReceived); ok {
		return p.offset
	}
	return r2.Vec{}
}

func (a *Aggregator) setLocked(ch Channel, arr marker.MarkerArray) {
	a.payloads[ch] = arr
	a.updates[ch]++
}

// OnPose records a vehicle state. The first call latches the offset at the
// pose position; every call redraws the driven path and ego vehicle and
// broadcasts the follow-camera transforms.
func (a *Aggregator) OnPose(s msgs.VehicleState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch p := a.pose.(type) {
	case noPose:
		a.pose = &poseReceived{offset: r2.Vec{X: s.X, Y: s.Y}, latest: s}
		logf("Visualization offset latched at (%.3f, %.3f)", s.X, s.Y)
	case *poseReceived:
		p.latest = s
	}
	a.history.Add(s)

	offset := a.offsetLocked()
	a.setLocked(ChannelDrivenPath, conversions.StateBufferToMarkers(a.history.States(), offset))
	a.setLocked(ChannelEgoVehicle, conversions.StateToMarkers(s, offset))
	a.broadcastLocked(s, offset)
}

func (a *Aggregator) broadcastLocked(s msgs.VehicleState, offset r2.Vec) {
	if a.out.Transforms == nil {
		return
	}
	stamp := a.cfg.Clock.Now().UnixNano()
	a.out.Transforms.SendTransform(marker.TransformStamped{
		StampNanos:   stamp,
		FrameID:      marker.FrameWorld,
		ChildFrameID: marker.FrameVisualizationOffset,
		Rotation:     marker.Identity(),
	})
	d := r2.Sub(r2.Vec{X: s.X, Y: s.Y}, offset)
	a.out.Transforms.SendTransform(marker.TransformStamped{
		StampNanos:   stamp,
		FrameID:      marker.FrameVisualizationOffset,
		ChildFrameID: marker.FrameEgoFollow,
		Translation:  marker.Vector3{X: d.X, Y: d.Y},
		Rotation:     marker.FromYaw(s.YawAngle),
	})
}

// OnMap draws the local map. Lane borders go to the borders channel, lane
// areas and centre lines to local_map.
func (a *Aggregator) OnMap(m msgs.Map) {
	a.mu.Lock()
	defer a.mu.Unlock()
	offset := a.offsetLocked()
	a.setLocked(ChannelBorders, conversions.MapToBorders(m, offset))
	a.setLocked(ChannelLocalMap, conversions.MapToMarkers(m, offset))
}

// OnRoute draws the planned route.
func (a *Aggregator) OnRoute(r msgs.Route) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelRoute, conversions.RouteToMarkers(r, a.offsetLocked()))
}

// OnGoal draws the mission goal.
func (a *Aggregator) OnGoal(g msgs.GoalPoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelGoal, conversions.GoalToMarkers(g, a.offsetLocked()))
}

// OnTrafficDecision draws the participants the planner reacts to.
func (a *Aggregator) OnTrafficDecision(set msgs.TrafficParticipantSet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelTrafficDecision, conversions.TrafficParticipantsToMarkers(set, a.offsetLocked()))
}

// OnIgnoredParticipants draws the participants the planner ignores.
func (a *Aggregator) OnIgnoredParticipants(set msgs.TrafficParticipantSet) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelIgnoredParticipants, conversions.IgnoredParticipantsToMarkers(set, a.offsetLocked()))
}

// OnSafetyCorridor draws the drivable corridor.
func (a *Aggregator) OnSafetyCorridor(c msgs.SafetyCorridor) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelSafetyCorridor, conversions.SafetyCorridorToMarkers(c, a.offsetLocked()))
}

// OnTrafficPrediction draws predicted participant paths.
func (a *Aggregator) OnTrafficPrediction(p msgs.TrafficPrediction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelTrafficPrediction, conversions.TrafficPredictionToMarkers(p, a.offsetLocked()))
}

// OnTrafficSignals draws signal heads and their states.
func (a *Aggregator) OnTrafficSignals(s msgs.TrafficSignals) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelTrafficSignals, conversions.TrafficSignalsToMarkers(s, a.offsetLocked()))
}

// OnCautionZones draws a caution zone outline and label.
func (a *Aggregator) OnCautionZones(z msgs.CautionZone) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelCautionZones, conversions.CautionZoneToMarkers(z, a.offsetLocked()))
}

// OnWaypoints draws remote operation waypoints.
func (a *Aggregator) OnWaypoints(w msgs.Waypoints) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ChannelRemoteOperationWaypoints, conversions.WaypointsToMarkers(w, a.offsetLocked()))
}

// OnTrajectory draws a trajectory on its kind's channel and republishes the
// columnar form right away, without waiting for a flush.
func (a *Aggregator) OnTrajectory(kind TrajectoryKind, t msgs.Trajectory) {
	ch := kind.Channel()
	if !ch.Valid() {
		logf("Ignoring trajectory of unknown kind %d", int(kind))
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setLocked(ch, conversions.TrajectoryToMarkers(t, a.offsetLocked()))
	if p := a.out.Trajectories[kind]; p != nil {
		p.Publish(conversions.Transpose(t))
	}
}

// Flush publishes every channel's current payload, then the map layers once
// an offset exists. Stored arrays are replaced on update and never mutated,
// so publishers may keep what they receive.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushes++

	for _, ch := range Channels() {
		if p := a.out.Markers[ch]; p != nil {
			p.Publish(a.payloads[ch])
		}
	}

	p, ok := a.pose.(*poseReceived)
	if !ok || a.cfg.Maps == nil {
		return
	}
	stamp := a.cfg.Clock.Now().UnixNano()
	if a.out.Map != nil {
		grid, err := a.cfg.Maps.OccupancyGrid(p.offset, p.latest)
		if err != nil {
			logf("Occupancy grid skipped: %v", err)
		} else {
			grid.FrameID = marker.FrameVisualizationOffset
			grid.StampNanos = stamp
			a.out.Map.Publish(grid)
		}
	}
	if a.out.MapCloud != nil {
		cloud, err := a.cfg.Maps.PointCloud(p.offset, p.latest)
		if err != nil {
			logf("Map cloud skipped: %v", err)
		} else {
			cloud.FrameID = marker.FrameVisualizationOffset
			cloud.StampNanos = stamp
			a.out.MapCloud.Publish(cloud)
		}
	}
}

// Run flushes on the configured cadence until the returned stop function is
// called.
func (a *Aggregator) Run(s timeutil.Scheduler) (stop func()) {
	logf("Flushing %d channels every %v", numChannels, a.cfg.FlushInterval)
	return s.Every(a.cfg.FlushInterval, a.Flush)
}

// Snapshot is a copy of the render state for diagnostics.
type Snapshot struct {
	Phase    Phase
	Offset   r2.Vec
	Latest   msgs.VehicleState
	History  []statebuffer.Entry
	Channels map[Channel]marker.MarkerArray
	Updates  map[Channel]uint64
	Flushes  uint64
}

// Snapshot returns a deep copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := Snapshot{
		Phase:    a.pose.phase(),
		History:  a.history.Entries(),
		Channels: make(map[Channel]marker.MarkerArray, numChannels),
		Updates:  make(map[Channel]uint64, numChannels),
		Flushes:  a.flushes,
	}
	if p, ok := a.pose.(*poseReceived); ok {
		snap.Offset = p.offset
		snap.Latest = p.latest
	}
	for _, ch := range Channels() {
		snap.Channels[ch] = a.payloads[ch].Clone()
		snap.Updates[ch] = a.updates[ch]
	}
	return snap
}

// Offset returns the latched offset and whether one exists.
func (a *Aggregator) Offset() (r2.Vec, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pose.(*poseReceived)
	if !ok {
		return r2.Vec{}, false
	}
	return p.offset, true
}
