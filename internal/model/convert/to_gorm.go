package convert

import (
	"encoding/json"

	"github.com/RacingGame/vehiclectl/internal/geo"
	"github.com/RacingGame/vehiclectl/internal/model"
	"github.com/RacingGame/vehiclectl/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// vec3ToPoint stores a host position as (x, z, height) so the point's XY
// is the ground plane.
func vec3ToPoint(v mgl64.Vec3) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X(), Y: v.Z()},
		Z:    v.Y(),
		Type: geom.DimXYZ,
	})
}

// CoreToSession converts a core.Session to a GORM Session.
func CoreToSession(s core.Session) model.Session {
	out := model.Session{
		SessionName:      s.SessionName,
		TrackName:        s.TrackName,
		StartTime:        s.StartTime,
		ExtensionVersion: s.ExtensionVersion,
		ExtensionBuild:   s.ExtensionBuild,
	}
	out.ID = s.ID
	if len(s.Settings) > 0 {
		out.Settings = datatypes.JSON(s.Settings)
	}
	return out
}

// CoreToTrack converts a core.Track to a GORM Track. A zero Length is
// computed from the waypoints.
func CoreToTrack(t core.Track) model.Track {
	length := t.Length
	if length == 0 {
		length = geo.LoopLength(t.Waypoints)
	}
	out := model.Track{
		Name:          t.Name,
		WaypointCount: len(t.Waypoints),
		Length:        length,
		Loop:          geo.LoopWKT(t.Waypoints),
	}
	out.ID = t.ID
	if data, err := json.Marshal(t.Waypoints); err == nil {
		out.Waypoints = datatypes.JSON(data)
	}
	return out
}

// CoreToVehicle converts a core.Vehicle to a GORM Vehicle.
// Core ID maps to GORM ObjectID.
func CoreToVehicle(v core.Vehicle) model.Vehicle {
	return model.Vehicle{
		ObjectID:  v.ID,
		Profile:   v.Profile,
		TrackName: v.TrackName,
		JoinTime:  v.JoinTime,
		JoinTick:  v.JoinTick,
	}
}

// CoreToStepSample converts a core.StepSample to a GORM StepSample.
func CoreToStepSample(s core.StepSample) model.StepSample {
	return model.StepSample{
		Time:            s.Time,
		Tick:            s.Tick,
		VehicleObjectID: s.VehicleID,
		Position:        vec3ToPoint(s.Position),
		Yaw:             s.Yaw,
		Speed:           s.Speed,
		WheelSpeed:      s.WheelSpeed,
		Steer:           s.Signals.Steer,
		Throttle:        s.Signals.Throttle,
		Handbrake:       s.Signals.Handbrake,
		WaypointIndex:   s.WaypointIndex,
		MotorTorque:     s.MotorTorque,
	}
}

// CoreToWaypointEvent converts a core.WaypointEvent to a GORM WaypointEvent.
func CoreToWaypointEvent(e core.WaypointEvent) model.WaypointEvent {
	return model.WaypointEvent{
		Time:            e.Time,
		Tick:            e.Tick,
		VehicleObjectID: e.VehicleID,
		Reached:         e.Reached,
		Next:            e.Next,
		Lap:             e.Lap,
	}
}
