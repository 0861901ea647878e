// Package core holds the types shared between the control laws, the host
// interface and the telemetry backends.
//
// All vectors use the host engine frame: Y is up, Z is forward and X is right.
// Angles exchanged with the host are in degrees.
package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// Forward is the local forward axis.
	Forward = mgl64.Vec3{0, 0, 1}
	// Up is the local up axis.
	Up = mgl64.Vec3{0, 1, 0}
	// Right is the local right axis.
	Right = mgl64.Vec3{1, 0, 0}
)

// Pose is a world position and orientation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewPose returns a pose at position with the given rotation. A zero
// quaternion is replaced with the identity.
func NewPose(position mgl64.Vec3, rotation mgl64.Quat) Pose {
	if rotation.Len() == 0 {
		rotation = mgl64.QuatIdent()
	}
	return Pose{Position: position, Rotation: rotation.Normalize()}
}

// InverseTransformPoint converts a world point into this pose's local frame.
func (p Pose) InverseTransformPoint(point mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Inverse().Rotate(point.Sub(p.Position))
}

// InverseTransformDirection converts a world direction into the local frame.
// Translation does not apply to directions.
func (p Pose) InverseTransformDirection(dir mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Inverse().Rotate(dir)
}

// TransformDirection converts a local direction into world space.
func (p Pose) TransformDirection(dir mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Rotate(dir)
}

// Forward returns the world-space forward axis.
func (p Pose) Forward() mgl64.Vec3 {
	return p.Rotation.Rotate(Forward)
}

// Up returns the world-space up axis.
func (p Pose) Up() mgl64.Vec3 {
	return p.Rotation.Rotate(Up)
}

// Yaw returns the heading of the forward axis about world Y, in degrees
// within [0, 360).
func (p Pose) Yaw() float64 {
	f := p.Forward()
	if f.X() == 0 && f.Z() == 0 {
		return 0
	}
	return NormalizeDegrees(mgl64.RadToDeg(math.Atan2(f.X(), f.Z())))
}

// YawRotation returns a rotation of deg degrees about world Y.
func YawRotation(deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), Up)
}

// EulerRotation builds a rotation from host euler angles in degrees. Roll is
// applied first, then pitch, then yaw.
func EulerRotation(pitch, yaw, roll float64) mgl64.Quat {
	qy := mgl64.QuatRotate(mgl64.DegToRad(yaw), Up)
	qx := mgl64.QuatRotate(mgl64.DegToRad(pitch), Right)
	qz := mgl64.QuatRotate(mgl64.DegToRad(roll), Forward)
	return qy.Mul(qx).Mul(qz)
}

// LookRotation returns the rotation whose forward axis points along dir with
// world Y kept up. A zero direction yields the identity.
func LookRotation(dir mgl64.Vec3) mgl64.Quat {
	horizontal := math.Hypot(dir.X(), dir.Z())
	if horizontal == 0 && dir.Y() == 0 {
		return mgl64.QuatIdent()
	}
	yaw := math.Atan2(dir.X(), dir.Z())
	pitch := math.Atan2(-dir.Y(), horizontal)
	return mgl64.QuatRotate(yaw, Up).Mul(mgl64.QuatRotate(pitch, Right))
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
