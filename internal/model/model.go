package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every table of the recording schema, in migration order
var DatabaseModels = []interface{}{
	&Track{},
	&Session{},
	&Vehicle{},
	&StepSample{},
	&WaypointEvent{},
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Track is a waypoint loop. Waypoints keeps the host-frame points as a JSON
// array of [x, y, z]; Loop holds the closed ground ring as WKT with
// coordinates (x, z, height).
type Track struct {
	gorm.Model
	Name          string         `json:"name" gorm:"size:127;uniqueIndex:idx_track_name"`
	WaypointCount int            `json:"waypointCount"`
	Length        float64        `json:"length"`
	Waypoints     datatypes.JSON `json:"waypoints"`
	Loop          string         `json:"loop" gorm:"type:text"`
}

func (*Track) TableName() string {
	return "tracks"
}

// Session is one recorded race
type Session struct {
	gorm.Model
	SessionName      string         `json:"sessionName" gorm:"size:200"`
	TrackName        string         `json:"trackName" gorm:"size:127"`
	TrackID          *uint          `json:"trackId"`
	StartTime        time.Time      `json:"sessionStart" gorm:"type:timestamptz;index:idx_session_start"`
	ExtensionVersion string         `json:"extensionVersion" gorm:"size:64"`
	ExtensionBuild   string         `json:"extensionBuild" gorm:"size:64"`
	Settings         datatypes.JSON `json:"settings"`
}

func (*Session) TableName() string {
	return "sessions"
}

// Vehicle is a controlled car
// Uses composite primary key (SessionID, ObjectID); ObjectID is the host's object id
//
// Host Command: :VEHICLE:NEW:
// Args: [id, profile, trackName]
type Vehicle struct {
	SessionID uint           `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	ObjectID  uint16         `json:"objectId" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	Profile   string         `json:"profile" gorm:"size:16"`
	TrackName string         `json:"trackName" gorm:"size:127"`
	JoinTime  time.Time      `json:"joinTime" gorm:"type:timestamptz;NOT NULL;index:idx_vehicle_join_time"`
	JoinTick  uint           `json:"joinTick"`
}

func (*Vehicle) TableName() string {
	return "vehicles"
}

// StepSample is one recorded physics step of a vehicle
// References Vehicle by (SessionID, VehicleObjectID)
//
// Host Command: :VEHICLE:STEP:
type StepSample struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time `json:"time" gorm:"type:timestamptz;"`
	SessionID       uint      `json:"sessionId" gorm:"index:idx_stepsample_session_id"`
	Tick            uint      `json:"tick" gorm:"index:idx_stepsample_tick"`
	VehicleObjectID uint16    `json:"vehicleId" gorm:"index:idx_stepsample_vehicle_id"`

	Position      geom.Point `json:"position"` // (x, z, height)
	Yaw           float64    `json:"yaw"`
	Speed         float64    `json:"speed"`
	WheelSpeed    float64    `json:"wheelSpeed"` // km/h
	Steer         float64    `json:"steer"`
	Throttle      float64    `json:"throttle"`
	Handbrake     bool       `json:"handbrake"`
	WaypointIndex int        `json:"waypointIndex"`
	MotorTorque   float64    `json:"motorTorque"`
}

func (*StepSample) TableName() string {
	return "step_samples"
}

// WaypointEvent records a vehicle reaching its target and moving on
type WaypointEvent struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time            time.Time `json:"time" gorm:"type:timestamptz;"`
	SessionID       uint      `json:"sessionId" gorm:"index:idx_waypointevent_session_id"`
	Tick            uint      `json:"tick"`
	VehicleObjectID uint16    `json:"vehicleId" gorm:"index:idx_waypointevent_vehicle_id"`
	Reached         int       `json:"reached"`
	Next            int       `json:"next"`
	Lap             int       `json:"lap"`
}

func (*WaypointEvent) TableName() string {
	return "waypoint_events"
}
