package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// wheelSpeedFactor turns radius*rpm into km/h using the host's shortcut
// (2*pi/60*3.6 rounded to pi*0.12).
const wheelSpeedFactor = math.Pi * 0.12

// VehicleState is what the physics body reports at the start of a step.
type VehicleState struct {
	Pose
	Velocity    mgl64.Vec3 // world frame
	WheelRPM    float64    // driven reference wheel
	WheelRadius float64
}

// LocalVelocity returns the velocity in the vehicle frame.
func (s VehicleState) LocalVelocity() mgl64.Vec3 {
	return s.InverseTransformDirection(s.Velocity)
}

// Speed is the magnitude of the body velocity.
func (s VehicleState) Speed() float64 {
	return s.Velocity.Len()
}

// WheelSpeed is the forward speed derived from the reference wheel, in km/h.
// Negative when the wheel spins backwards.
func (s VehicleState) WheelSpeed() float64 {
	return s.WheelRadius * s.WheelRPM * wheelSpeedFactor
}
