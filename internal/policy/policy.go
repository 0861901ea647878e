// Package policy turns a vehicle's view of its target waypoint into driver
// signals. Every function here is total: degenerate inputs give zero signals,
// never NaN.
package policy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

// Epsilon is the smallest target distance that still yields a direction.
const Epsilon = 1e-6

// Source selects where a controller takes its signals from.
type Source int

const (
	// SourceWaypoint derives signals from the track.
	SourceWaypoint Source = iota
	// SourceManual passes host input axes through.
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceWaypoint:
		return "waypoint"
	case SourceManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Config parameterizes the shared waypoint heuristic.
type Config struct {
	// TurnThreshold is the |steer| above which a turn counts as hard.
	TurnThreshold float64 `json:"turnThreshold" mapstructure:"turnThreshold"`
	// HandbrakeSpeed is the body speed above which a hard turn power-slides.
	HandbrakeSpeed float64 `json:"handbrakeSpeed" mapstructure:"handbrakeSpeed"`

	ObstacleSensing bool    `json:"obstacleSensing" mapstructure:"obstacleSensing"`
	BrakingDistance float64 `json:"brakingDistance" mapstructure:"brakingDistance"`
	// ForwardOffset moves the probe origin along the vehicle's forward axis.
	ForwardOffset float64 `json:"forwardOffset" mapstructure:"forwardOffset"`

	Source Source `json:"source" mapstructure:"-"`
}

// PlayerConfig is the waypoint-driven player car.
func PlayerConfig() Config {
	return Config{
		TurnThreshold:  0.5,
		HandbrakeSpeed: 10,
		Source:         SourceWaypoint,
	}
}

// AIConfig is the opponent car with forward obstacle sensing.
func AIConfig() Config {
	return Config{
		TurnThreshold:   0.8,
		HandbrakeSpeed:  4,
		ObstacleSensing: true,
		BrakingDistance: 6,
		Source:          SourceWaypoint,
	}
}

// ManualConfig takes signals from the host's input axes.
func ManualConfig() Config {
	return Config{Source: SourceManual}
}

// Follow computes steering, throttle and handbrake toward a target.
//
// rel is the target in the vehicle frame, localVel the body velocity in the
// vehicle frame and speed the body speed. prev is last step's output: a
// power-slide keeps its throttle.
func Follow(rel, localVel mgl64.Vec3, speed float64, prev core.Signals, cfg Config) core.Signals {
	dist := rel.Len()
	if dist < Epsilon || math.IsNaN(dist) {
		return core.Signals{}
	}

	steer := rel.X() / dist
	if math.Abs(steer) < cfg.TurnThreshold {
		return core.Signals{Steer: steer, Throttle: rel.Z() / dist}.Clamp()
	}

	switch {
	case speed > cfg.HandbrakeSpeed:
		return core.Signals{Steer: steer, Throttle: prev.Throttle, Handbrake: true}.Clamp()
	case localVel.Z() < 0:
		// backing up, so turn the other way
		return core.Signals{Steer: -steer, Throttle: -1}.Clamp()
	default:
		return core.Signals{Steer: steer}.Clamp()
	}
}

// ObstacleFactor scales throttle by how close the nearest obstacle is. A hit
// at the probe origin gives -1 (full reverse), a miss gives exactly 1.
func ObstacleFactor(distance float64, hit bool, brakingDistance float64) float64 {
	if !hit || brakingDistance <= 0 || distance < 0 || distance > brakingDistance {
		return 1
	}
	return 2*(distance/brakingDistance) - 1
}

// Probe returns the forward obstacle query for a vehicle at pose.
func Probe(pose core.Pose, cfg Config) core.Ray {
	fwd := pose.Forward()
	return core.Ray{
		Origin:      pose.Position.Add(fwd.Mul(cfg.ForwardOffset)),
		Direction:   fwd,
		MaxDistance: cfg.BrakingDistance,
	}
}

// Sense casts the forward probe and returns the throttle factor. Configs
// without obstacle sensing always get 1.
func Sense(pose core.Pose, cfg Config, sensor core.ObstacleSensor) float64 {
	if !cfg.ObstacleSensing || sensor == nil {
		return 1
	}
	d, hit := sensor.Raycast(Probe(pose, cfg))
	return ObstacleFactor(d, hit, cfg.BrakingDistance)
}

// Manual maps host input axes to signals. Any positive handbrake axis engages
// the handbrake.
func Manual(in core.ManualInput) core.Signals {
	s := core.Signals{
		Steer:     in.Horizontal,
		Throttle:  in.Vertical,
		Handbrake: in.Handbrake > 0,
	}
	if math.IsNaN(s.Steer) {
		s.Steer = 0
	}
	if math.IsNaN(s.Throttle) {
		s.Throttle = 0
	}
	return s.Clamp()
}
