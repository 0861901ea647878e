package core

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Session is one recorded race on one track.
type Session struct {
	ID               uint
	SessionName      string
	TrackName        string
	StartTime        time.Time
	ExtensionVersion string
	ExtensionBuild   string
	// Settings is a JSON snapshot of the active configuration.
	Settings []byte
}

// Track describes the waypoint loop a session runs on.
type Track struct {
	ID        uint
	Name      string
	Waypoints []mgl64.Vec3
	Length    float64
}

// Vehicle is a controlled car registered with the session.
// ID is the host's object identifier.
type Vehicle struct {
	ID        uint16
	Profile   string
	TrackName string
	JoinTime  time.Time
	JoinTick  uint
}

// StepSample is what a vehicle did during one physics step.
type StepSample struct {
	VehicleID     uint16
	Time          time.Time
	Tick          uint
	Position      mgl64.Vec3
	Yaw           float64
	Speed         float64
	WheelSpeed    float64
	Signals       Signals
	WaypointIndex int
	MotorTorque   float64
}

// WaypointEvent marks a vehicle reaching its target waypoint.
type WaypointEvent struct {
	VehicleID uint16
	Time      time.Time
	Tick      uint
	Reached   int
	Next      int
	Lap       int
}
