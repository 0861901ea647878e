package parser

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/internal/geo"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// TrackArgs is a :TRACK: call. Points still include the container root.
type TrackArgs struct {
	Name   string
	Points []mgl64.Vec3
}

// GeoTrackArgs is a :TRACK:GEO: call.
type GeoTrackArgs struct {
	Name   string
	Points []geo.LonLat
}

// SessionArgs is a :SESSION:START: call.
type SessionArgs struct {
	Name      string
	TrackName string
}

// VehicleArgs is a :VEHICLE:NEW: call. Profile is left for the caller to
// validate so unknown names surface with the vehicle id.
type VehicleArgs struct {
	ID        uint16
	Profile   string
	TrackName string
}

// InputArgs is a :VEHICLE:INPUT: call.
type InputArgs struct {
	ID    uint16
	Input core.ManualInput
}

// ProbeArgs is a :VEHICLE:PROBE: call.
type ProbeArgs struct {
	ID   uint16
	Pose core.Pose
}

// StepArgs is a :VEHICLE:STEP: call.
type StepArgs struct {
	ID    uint16
	State core.VehicleState
	Hit   core.FixedHit
}

// CameraArgs is a :CAMERA:NEW: call. Zero distance or height keeps the
// configured value.
type CameraArgs struct {
	ID       string
	Distance float64
	Height   float64
}

// CameraStepArgs is a :CAMERA:STEP: call.
type CameraStepArgs struct {
	ID     string
	Target core.VehicleState
}

// CameraFrameArgs is a :CAMERA:FRAME: call.
type CameraFrameArgs struct {
	ID     string
	Target core.Pose
	DT     float64
}
