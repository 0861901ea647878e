package core

import "github.com/go-gl/mathgl/mgl64"

// Wheel positions, in the order they appear in Actuation.Wheels.
const (
	WheelFrontLeft = iota
	WheelFrontRight
	WheelRearLeft
	WheelRearRight
	WheelCount
)

// WheelCommand is what the host's wheel contact solver consumes for one wheel.
type WheelCommand struct {
	SteerAngle        float64 `json:"steerAngle"` // degrees
	MotorTorque       float64 `json:"motorTorque"`
	BrakeTorque       float64 `json:"brakeTorque"`
	ForwardStiffness  float64 `json:"forwardStiffness"`
	SidewaysStiffness float64 `json:"sidewaysStiffness"`
}

// Actuation is the full per-step output applied to the physics body.
type Actuation struct {
	Wheels [WheelCount]WheelCommand `json:"wheels"`
	// Downforce is an impulse to add to the body this step.
	Downforce mgl64.Vec3 `json:"downforce"`
}

// IsFront reports whether wheel index i steers.
func IsFront(i int) bool {
	return i == WheelFrontLeft || i == WheelFrontRight
}
