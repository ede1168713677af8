package ingest

import (
	"sync"

	"github.com/banshee-data/drive-visualizer/internal/monitoring"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

func init() {
	monitoring.SetLogger(nil)
}

// recordingSink remembers every delivered message by input topic.
type recordingSink struct {
	mu    sync.Mutex
	calls []string
	poses []msgs.VehicleState
	trajs map[visualizer.TrajectoryKind]msgs.Trajectory
	last  map[string]any
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		trajs: make(map[visualizer.TrajectoryKind]msgs.Trajectory),
		last:  make(map[string]any),
	}
}

func (s *recordingSink) record(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	s.last[name] = v
}

func (s *recordingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *recordingSink) OnPose(v msgs.VehicleState) {
	s.record("pose", v)
	s.mu.Lock()
	s.poses = append(s.poses, v)
	s.mu.Unlock()
}
func (s *recordingSink) OnMap(v msgs.Map)                                   { s.record("map", v) }
func (s *recordingSink) OnRoute(v msgs.Route)                               { s.record("route", v) }
func (s *recordingSink) OnGoal(v msgs.GoalPoint)                            { s.record("goal", v) }
func (s *recordingSink) OnTrafficDecision(v msgs.TrafficParticipantSet)     { s.record("decision", v) }
func (s *recordingSink) OnIgnoredParticipants(v msgs.TrafficParticipantSet) { s.record("ignored", v) }
func (s *recordingSink) OnSafetyCorridor(v msgs.SafetyCorridor)             { s.record("corridor", v) }
func (s *recordingSink) OnTrafficPrediction(v msgs.TrafficPrediction)       { s.record("prediction", v) }
func (s *recordingSink) OnTrafficSignals(v msgs.TrafficSignals)             { s.record("signals", v) }
func (s *recordingSink) OnCautionZones(v msgs.CautionZone)                  { s.record("caution", v) }
func (s *recordingSink) OnWaypoints(v msgs.Waypoints)                       { s.record("waypoints", v) }
func (s *recordingSink) OnTrajectory(k visualizer.TrajectoryKind, t msgs.Trajectory) {
	s.record(k.String(), t)
	s.mu.Lock()
	s.trajs[k] = t
	s.mu.Unlock()
}
