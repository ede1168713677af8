// Package msgs defines the messages consumed from the driving stack and the
// derived messages republished by the visualizer. Field names follow the JSON
// envelopes produced by the ingest bridges.
package msgs

// Point2 is a planar point in world coordinates (metres).
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VehicleState is the dynamic state of the ego vehicle or of one trajectory
// sample. Time is in seconds.
type VehicleState struct {
	Time          float64 `json:"time"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	YawAngle      float64 `json:"yaw_angle"`
	Vx            float64 `json:"vx"`
	Vy            float64 `json:"vy"`
	YawRate       float64 `json:"yaw_rate"`
	Ax            float64 `json:"ax"`
	SteeringAngle float64 `json:"steering_angle"`
}

// Position returns the planar position of the state.
func (s VehicleState) Position() Point2 {
	return Point2{X: s.X, Y: s.Y}
}

// Lane is one lane of the local map.
type Lane struct {
	ID          int      `json:"id"`
	Type        string   `json:"type"`
	LeftBorder  []Point2 `json:"left_border"`
	RightBorder []Point2 `json:"right_border"`
	Center      []Point2 `json:"center"`
}

// Road groups the lanes of one road section.
type Road struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Lanes []Lane `json:"lanes"`
}

// Map is the local road map around the vehicle.
type Map struct {
	Roads []Road `json:"roads"`
}

// RoutePoint is one sample along a route centreline. S is the arc length.
type RoutePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	S float64 `json:"s"`
}

// Route is the planned route to the mission goal.
type Route struct {
	Start       Point2       `json:"start"`
	Destination Point2       `json:"destination"`
	Center      []RoutePoint `json:"center"`
}

// GoalPoint is the mission goal position.
type GoalPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// TrafficParticipant is one detected road user.
type TrafficParticipant struct {
	ID             int          `json:"id"`
	Classification string       `json:"classification"`
	State          VehicleState `json:"state"`
	Length         float64      `json:"length"`
	Width          float64      `json:"width"`
	Height         float64      `json:"height"`
	Trajectory     *Trajectory  `json:"trajectory,omitempty"`
}

// TrafficParticipantSet is a snapshot of participants.
type TrafficParticipantSet struct {
	Participants []TrafficParticipant `json:"participants"`
}

// SafetyCorridor is the drivable corridor bounded by two borders.
type SafetyCorridor struct {
	LeftBorder  []Point2 `json:"left_border"`
	RightBorder []Point2 `json:"right_border"`
}

// PredictedPath is one predicted motion hypothesis for a participant.
type PredictedPath struct {
	ParticipantID int         `json:"participant_id"`
	Probability   float64     `json:"probability"`
	Trajectory    Trajectory  `json:"trajectory"`
	Participant   *Dimensions `json:"participant,omitempty"`
}

// Dimensions is an object footprint.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// TrafficPrediction holds the predicted paths of all participants.
type TrafficPrediction struct {
	Paths []PredictedPath `json:"paths"`
}

// SignalState is a traffic light phase.
type SignalState string

const (
	SignalRed     SignalState = "red"
	SignalYellow  SignalState = "yellow"
	SignalGreen   SignalState = "green"
	SignalUnknown SignalState = "unknown"
)

// TrafficSignal is a single signal head.
type TrafficSignal struct {
	ID    int         `json:"id"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	State SignalState `json:"state"`
}

// TrafficSignals is the set of currently observed signals.
type TrafficSignals struct {
	Signals []TrafficSignal `json:"signals"`
}

// CautionZone is a labelled polygon the planner should treat carefully.
type CautionZone struct {
	Label   string   `json:"label"`
	Polygon []Point2 `json:"polygon"`
}

// Waypoints is a remote-operation waypoint list.
type Waypoints struct {
	Points []Point2 `json:"points"`
}

// Trajectory is a time-ordered list of vehicle states.
type Trajectory struct {
	Label  string         `json:"label"`
	States []VehicleState `json:"states"`
}

// TrajectoryTranspose is the columnar form of a Trajectory, convenient for
// plotting each quantity over time.
type TrajectoryTranspose struct {
	Label         string    `json:"label"`
	Time          []float64 `json:"time"`
	X             []float64 `json:"x"`
	Y             []float64 `json:"y"`
	YawAngle      []float64 `json:"yaw_angle"`
	Vx            []float64 `json:"vx"`
	SteeringAngle []float64 `json:"steering_angle"`
	Ax            []float64 `json:"ax"`
}
