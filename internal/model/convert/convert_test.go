package convert

import (
	"testing"
	"time"

	"github.com/RacingGame/vehiclectl/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3ToPoint_GroundPlaneLayout(t *testing.T) {
	pt := vec3ToPoint(mgl64.Vec3{10, 2, -30})

	coord, ok := pt.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 10.0, coord.XY.X)
	assert.Equal(t, -30.0, coord.XY.Y)
	assert.Equal(t, 2.0, coord.Z)
	assert.Equal(t, mgl64.Vec3{10, 2, -30}, pointToVec3(pt))
}

func TestSessionConversion(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := core.Session{
		ID:               9,
		SessionName:      "Qualifying",
		TrackName:        "oval",
		StartTime:        start,
		ExtensionVersion: "1.0.0",
		Settings:         []byte(`{"ai":{"reachRadius":5}}`),
	}

	m := CoreToSession(in)
	assert.Equal(t, uint(9), m.ID)
	assert.JSONEq(t, `{"ai":{"reachRadius":5}}`, string(m.Settings))

	out := SessionToCore(m)
	assert.Equal(t, in, out)
}

func TestSessionConversion_NoSettings(t *testing.T) {
	m := CoreToSession(core.Session{SessionName: "practice"})
	assert.Nil(t, m.Settings)
	assert.Nil(t, SessionToCore(m).Settings)
}

func TestTrackConversion(t *testing.T) {
	points := []mgl64.Vec3{{0, 0, 0}, {30, 1, 0}, {30, 1, 40}}
	m := CoreToTrack(core.Track{Name: "triangle", Waypoints: points})

	assert.Equal(t, "triangle", m.Name)
	assert.Equal(t, 3, m.WaypointCount)
	assert.InDelta(t, 120.0, m.Length, 1e-9)
	assert.Contains(t, m.Loop, "LINESTRING")

	back := TrackToCore(m)
	assert.Equal(t, points, back.Waypoints)
	assert.InDelta(t, 120.0, back.Length, 1e-9)
}

func TestTrackToCore_BadJSON(t *testing.T) {
	m := CoreToTrack(core.Track{Name: "x", Length: 5})
	m.Waypoints = []byte("not json")
	out := TrackToCore(m)
	assert.Empty(t, out.Waypoints)
	assert.Equal(t, 5.0, out.Length)
}

func TestVehicleConversion(t *testing.T) {
	in := core.Vehicle{ID: 42, Profile: "ai", TrackName: "oval", JoinTime: time.Unix(100, 0).UTC(), JoinTick: 7}
	m := CoreToVehicle(in)
	assert.Equal(t, uint16(42), m.ObjectID)
	assert.Equal(t, in, VehicleToCore(m))
}

func TestStepSampleConversion(t *testing.T) {
	in := core.StepSample{
		VehicleID:     3,
		Time:          time.Unix(5, 0).UTC(),
		Tick:          250,
		Position:      mgl64.Vec3{1, 0.5, 2},
		Yaw:           90,
		Speed:         12,
		WheelSpeed:    43.2,
		Signals:       core.Signals{Steer: -0.25, Throttle: 1, Handbrake: true},
		WaypointIndex: 4,
		MotorTorque:   50,
	}
	m := CoreToStepSample(in)
	assert.Equal(t, -0.25, m.Steer)
	assert.True(t, m.Handbrake)
	assert.Equal(t, in, StepSampleToCore(m))
}

func TestWaypointEventConversion(t *testing.T) {
	in := core.WaypointEvent{VehicleID: 2, Time: time.Unix(9, 0).UTC(), Tick: 30, Reached: 5, Next: 0, Lap: 1}
	assert.Equal(t, in, WaypointEventToCore(CoreToWaypointEvent(in)))
}
