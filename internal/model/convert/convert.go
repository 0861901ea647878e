// Package convert maps between the core recording types and their GORM models.
package convert

import (
	"encoding/json"

	"github.com/RacingGame/vehiclectl/internal/model"
	"github.com/RacingGame/vehiclectl/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
)

// pointToVec3 reverses vec3ToPoint.
func pointToVec3(p geom.Point) mgl64.Vec3 {
	coord, ok := p.Coordinates()
	if !ok {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{coord.XY.X, coord.Z, coord.XY.Y}
}

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	var settings []byte
	if len(s.Settings) > 0 {
		settings = []byte(s.Settings)
	}
	return core.Session{
		ID:               s.ID,
		SessionName:      s.SessionName,
		TrackName:        s.TrackName,
		StartTime:        s.StartTime,
		ExtensionVersion: s.ExtensionVersion,
		ExtensionBuild:   s.ExtensionBuild,
		Settings:         settings,
	}
}

// TrackToCore converts a GORM Track to a core.Track. Unreadable waypoint
// JSON yields a track without waypoints.
func TrackToCore(t model.Track) core.Track {
	var points []mgl64.Vec3
	if len(t.Waypoints) > 0 {
		_ = json.Unmarshal(t.Waypoints, &points)
	}
	return core.Track{
		ID:        t.ID,
		Name:      t.Name,
		Waypoints: points,
		Length:    t.Length,
	}
}

// VehicleToCore converts a GORM Vehicle to a core.Vehicle.
// GORM ObjectID maps to core ID.
func VehicleToCore(v model.Vehicle) core.Vehicle {
	return core.Vehicle{
		ID:        v.ObjectID,
		Profile:   v.Profile,
		TrackName: v.TrackName,
		JoinTime:  v.JoinTime,
		JoinTick:  v.JoinTick,
	}
}

// StepSampleToCore converts a GORM StepSample to a core.StepSample.
func StepSampleToCore(s model.StepSample) core.StepSample {
	return core.StepSample{
		VehicleID:  s.VehicleObjectID,
		Time:       s.Time,
		Tick:       s.Tick,
		Position:   pointToVec3(s.Position),
		Yaw:        s.Yaw,
		Speed:      s.Speed,
		WheelSpeed: s.WheelSpeed,
		Signals: core.Signals{
			Steer:     s.Steer,
			Throttle:  s.Throttle,
			Handbrake: s.Handbrake,
		},
		WaypointIndex: s.WaypointIndex,
		MotorTorque:   s.MotorTorque,
	}
}

// WaypointEventToCore converts a GORM WaypointEvent to a core.WaypointEvent.
func WaypointEventToCore(e model.WaypointEvent) core.WaypointEvent {
	return core.WaypointEvent{
		VehicleID: e.VehicleObjectID,
		Time:      e.Time,
		Tick:      e.Tick,
		Reached:   e.Reached,
		Next:      e.Next,
		Lap:       e.Lap,
	}
}
