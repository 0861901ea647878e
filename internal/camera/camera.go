// Package camera implements the chase camera that trails a vehicle.
//
// The desired yaw is sampled on the physics step and the camera moves toward
// it every render frame, so the two rates stay decoupled.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

// Config tunes the follow filter.
type Config struct {
	Distance         float64 `json:"distance" mapstructure:"distance"`
	Height           float64 `json:"height" mapstructure:"height"`
	RotationDamping  float64 `json:"rotationDamping" mapstructure:"rotationDamping"`
	HeightDamping    float64 `json:"heightDamping" mapstructure:"heightDamping"`
	ReverseThreshold float64 `json:"reverseThreshold" mapstructure:"reverseThreshold"`
	// Exponential uses 1-exp(-damping*dt) as the blend factor instead of
	// damping*dt, which makes the filter independent of frame rate.
	Exponential bool `json:"exponential" mapstructure:"exponential"`
}

// DefaultConfig returns the stock damping values with the given offsets.
func DefaultConfig(distance, height float64) Config {
	return Config{
		Distance:         distance,
		Height:           height,
		RotationDamping:  3,
		HeightDamping:    2,
		ReverseThreshold: 0.5,
	}
}

// Camera holds the smoothed follow state for one chase camera.
type Camera struct {
	cfg Config

	desiredYaw float64
	yaw        float64
	height     float64
	position   mgl64.Vec3
}

// New returns a camera starting at the given transform.
func New(cfg Config, start core.CameraTransform) *Camera {
	p := core.NewPose(start.Position, start.Rotation)
	return &Camera{
		cfg:      cfg,
		yaw:      p.Yaw(),
		height:   start.Position.Y(),
		position: start.Position,
	}
}

// Config returns the filter configuration.
func (c *Camera) Config() Config { return c.cfg }

// DesiredYaw is the yaw sampled on the last physics step, in degrees.
func (c *Camera) DesiredYaw() float64 { return c.desiredYaw }

// Yaw is the current smoothed yaw in degrees.
func (c *Camera) Yaw() float64 { return c.yaw }

// Position is where the last frame put the camera.
func (c *Camera) Position() mgl64.Vec3 { return c.position }

// FixedUpdate samples the target's heading. A target moving backwards faster
// than ReverseThreshold is watched from the front.
func (c *Camera) FixedUpdate(target core.VehicleState) {
	c.desiredYaw = target.Yaw()
	if target.LocalVelocity().Z() < -c.cfg.ReverseThreshold {
		c.desiredYaw += 180
	}
}

// LateUpdate moves the camera one render frame toward its goal and returns
// the new transform.
func (c *Camera) LateUpdate(target core.Pose, dt float64) core.CameraTransform {
	desiredHeight := target.Position.Y() + c.cfg.Height

	c.yaw = core.NormalizeDegrees(LerpAngle(c.yaw, c.desiredYaw, c.factor(c.cfg.RotationDamping, dt)))
	c.height = Lerp(c.height, desiredHeight, c.factor(c.cfg.HeightDamping, dt))

	back := core.YawRotation(c.yaw).Rotate(core.Forward).Mul(c.cfg.Distance)
	pos := target.Position.Sub(back)
	pos[1] = c.height
	c.position = pos

	rot := core.LookRotation(target.Position.Sub(pos))
	return core.CameraTransform{Position: pos, Rotation: rot}
}

func (c *Camera) factor(damping, dt float64) float64 {
	if c.cfg.Exponential {
		return 1 - math.Exp(-damping*dt)
	}
	return damping * dt
}

// Lerp interpolates from a to b by t clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*core.Clamp(t, 0, 1)
}

// LerpAngle interpolates between two angles in degrees along the shorter
// arc, with t clamped to [0, 1].
func LerpAngle(a, b, t float64) float64 {
	delta := math.Mod(b-a, 360)
	if delta < 0 {
		delta += 360
	}
	if delta > 180 {
		delta -= 360
	}
	return a + delta*core.Clamp(t, 0, 1)
}
