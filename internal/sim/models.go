package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/internal/agent"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// Meta holds the identity and timing of a run.
type Meta struct {
	ScenarioID string  `json:"scenario_id"`
	RunTime    float64 `json:"run_time"`  // seconds
	TimeStep   float64 `json:"time_step"` // seconds
}

// InputAt is a manual input sample that takes effect at Time and holds until
// the next sample.
type InputAt struct {
	Time       float64 `json:"time"`
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
	Handbrake  float64 `json:"handbrake"`
}

// Body holds the kinematic parameters of a simulated car. Zero fields take
// the defaults from DefaultBody.
type Body struct {
	WheelRadius float64 `json:"wheel_radius"` // m
	Wheelbase   float64 `json:"wheelbase"`    // m
	Mass        float64 `json:"mass"`
	// RollingDrag is a linear speed decay, per second.
	RollingDrag float64 `json:"rolling_drag"`
	// Radius is the collision sphere other cars' probes see.
	Radius float64 `json:"radius"`
}

// DefaultBody is a small kart-like car.
func DefaultBody() Body {
	return Body{WheelRadius: 0.34, Wheelbase: 2.6, Mass: 100, RollingDrag: 0.05, Radius: 1.5}
}

func (b Body) withDefaults() Body {
	d := DefaultBody()
	if b.WheelRadius <= 0 {
		b.WheelRadius = d.WheelRadius
	}
	if b.Wheelbase <= 0 {
		b.Wheelbase = d.Wheelbase
	}
	if b.Mass <= 0 {
		b.Mass = d.Mass
	}
	if b.RollingDrag < 0 {
		b.RollingDrag = 0
	}
	if b.Radius <= 0 {
		b.Radius = d.Radius
	}
	return b
}

// VehicleSpec places one controlled car.
type VehicleSpec struct {
	ID      uint16     `json:"id"`
	Profile string     `json:"profile"`
	Start   mgl64.Vec3 `json:"start"`
	Yaw     float64    `json:"yaw"`   // degrees
	Speed   float64    `json:"speed"` // initial forward speed, m/s
	Body    Body       `json:"body"`
	// Config overrides the profile's stock setup.
	Config *agent.Config `json:"config,omitempty"`
	Inputs []InputAt     `json:"inputs,omitempty"`
}

// Sphere is a static obstacle.
type Sphere struct {
	Center mgl64.Vec3 `json:"center"`
	Radius float64    `json:"radius"`
}

// CameraSpec attaches a chase camera to one vehicle.
type CameraSpec struct {
	Follow      uint16  `json:"follow"`
	Distance    float64 `json:"distance"`
	Height      float64 `json:"height"`
	Exponential bool    `json:"exponential"`
}

// Scenario is the JSON input of a run.
type Scenario struct {
	Meta      Meta          `json:"scenario_meta"`
	TrackName string        `json:"track_name"`
	Track     []mgl64.Vec3  `json:"track"`
	Vehicles  []VehicleSpec `json:"vehicles"`
	Obstacles []Sphere      `json:"obstacles,omitempty"`
	Camera    *CameraSpec   `json:"camera,omitempty"`
}

// VehicleLog is one car's state after a step.
type VehicleLog struct {
	ID             uint16       `json:"id"`
	Position       mgl64.Vec3   `json:"position"`
	Yaw            float64      `json:"yaw"`
	Speed          float64      `json:"speed"`
	WheelSpeed     float64      `json:"wheel_speed"` // km/h
	Signals        core.Signals `json:"signals"`
	ObstacleFactor float64      `json:"obstacle_factor"`
	WaypointIndex  int          `json:"waypoint_index"`
	Lap            int          `json:"lap"`
}

// LogRow is the state of every car at one tick.
type LogRow struct {
	Tick      uint                  `json:"tick"`
	Timestamp float64               `json:"timestamp"`
	Vehicles  []VehicleLog          `json:"vehicles"`
	Camera    *core.CameraTransform `json:"camera,omitempty"`
}

// Log is the full output of a run.
type Log struct {
	Meta   Meta     `json:"scenario_meta"`
	Output []LogRow `json:"output"`
}
