// Package agent drives one vehicle: it owns the waypoint cursor, the last
// signals and the actuator, and runs them in physics-step order.
package agent

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/internal/actuation"
	"github.com/RacingGame/vehiclectl/internal/policy"
	"github.com/RacingGame/vehiclectl/internal/track"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// ErrNoTrack is returned when a waypoint-driven profile has nothing to follow.
var ErrNoTrack = errors.New("waypoint controller needs a track")

// Advance describes a waypoint reached during the last step.
type Advance struct {
	Reached int
	Next    int
	Lap     int
}

// Controller is the per-vehicle control state. It is not safe for
// concurrent use; the host drives each vehicle from one step loop.
type Controller struct {
	profile Profile
	cfg     Config

	track  *track.Track
	cursor track.Cursor

	input    core.ManualInput
	signals  core.Signals
	factor   float64
	actuator *actuation.Actuator

	advanced *Advance
}

// New builds a controller. Waypoint profiles need a non-empty track; the
// manual profile accepts a nil track.
func New(profile Profile, cfg Config, t *track.Track) (*Controller, error) {
	if cfg.Policy.Source == policy.SourceWaypoint && (t == nil || t.Len() == 0) {
		return nil, fmt.Errorf("profile %s: %w", profile, ErrNoTrack)
	}
	return &Controller{
		profile:  profile,
		cfg:      cfg,
		track:    t,
		factor:   1,
		actuator: actuation.New(cfg.Actuation),
	}, nil
}

// Profile returns the setup this controller was built with.
func (c *Controller) Profile() Profile { return c.profile }

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

// Track returns the followed track, nil for a free manual car.
func (c *Controller) Track() *track.Track { return c.track }

// SetInput stores host input axes for the next manual step.
func (c *Controller) SetInput(in core.ManualInput) { c.input = in }

// Signals returns the signals computed by the last step.
func (c *Controller) Signals() core.Signals { return c.signals }

// ObstacleFactor returns the throttle scale applied by the last step.
func (c *Controller) ObstacleFactor() float64 { return c.factor }

// Actuation returns the last wheel commands.
func (c *Controller) Actuation() core.Actuation { return c.actuator.Last() }

// WaypointIndex returns the index of the target waypoint.
func (c *Controller) WaypointIndex() int { return c.cursor.Index() }

// Laps returns how many times the car wrapped past the last waypoint.
func (c *Controller) Laps() int { return c.cursor.Laps() }

// CurrentWaypoint returns the target waypoint.
func (c *Controller) CurrentWaypoint() (mgl64.Vec3, bool) {
	if c.track == nil {
		return mgl64.Vec3{}, false
	}
	return c.cursor.Current(c.track), true
}

// LastWaypoint returns the waypoint before the target.
func (c *Controller) LastWaypoint() (mgl64.Vec3, bool) {
	if c.track == nil {
		return mgl64.Vec3{}, false
	}
	return c.cursor.Previous(c.track), true
}

// Advanced reports the waypoint reached during the last step, if any.
func (c *Controller) Advanced() (Advance, bool) {
	if c.advanced == nil {
		return Advance{}, false
	}
	return *c.advanced, true
}

// Probe returns the obstacle query the next step will make, and whether the
// profile senses obstacles at all.
func (c *Controller) Probe(pose core.Pose) (core.Ray, bool) {
	return policy.Probe(pose, c.cfg.Policy), c.cfg.Policy.ObstacleSensing
}

// FixedUpdate runs one physics step: target selection, policy, waypoint
// advance, then actuation.
func (c *Controller) FixedUpdate(state core.VehicleState, sensor core.ObstacleSensor) core.Actuation {
	c.advanced = nil

	switch c.cfg.Policy.Source {
	case policy.SourceManual:
		c.signals = policy.Manual(c.input)
	default:
		rel := c.relativeTarget(state.Pose)
		c.signals = policy.Follow(rel, state.LocalVelocity(), state.Speed(), c.signals, c.cfg.Policy)

		reached := c.cursor.Index()
		if c.cursor.AdvanceIfReached(c.track, rel, c.cfg.ReachRadius) {
			c.advanced = &Advance{Reached: reached, Next: c.cursor.Index(), Lap: c.cursor.Laps()}
		}
	}

	c.factor = policy.Sense(state.Pose, c.cfg.Policy, sensor)
	return c.actuator.Apply(c.signals, c.factor, state)
}

// relativeTarget is the target waypoint in the vehicle frame, lifted to the
// vehicle's own height.
func (c *Controller) relativeTarget(pose core.Pose) mgl64.Vec3 {
	wp := c.cursor.Current(c.track)
	wp[1] = pose.Position.Y()
	return pose.InverseTransformPoint(wp)
}

// Reset rewinds the cursor and clears held signals and wheel commands.
func (c *Controller) Reset() {
	c.cursor.Reset()
	c.signals = core.Signals{}
	c.input = core.ManualInput{}
	c.factor = 1
	c.advanced = nil
	c.actuator.Reset()
}
