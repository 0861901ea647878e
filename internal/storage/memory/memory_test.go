package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

var sessionStart = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newSession() *core.Session {
	return &core.Session{
		SessionName:      "Grand Prix",
		TrackName:        "oval",
		StartTime:        sessionStart,
		ExtensionVersion: "1.2.3",
		Settings:         []byte(`{"player":{"reachRadius":25}}`),
	}
}

func startedBackend(t *testing.T, cfg config.MemoryConfig) *Backend {
	t.Helper()
	b := New(cfg)
	require.NoError(t, b.Init())
	track := &core.Track{Name: "oval", Waypoints: []mgl64.Vec3{{0, 0, 0}, {10, 0, 0}}, Length: 20}
	require.NoError(t, b.StartSession(newSession(), track))
	return b
}

func TestStartSession_AssignsIDAndResets(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 1, Profile: "ai"}))

	s := newSession()
	require.NoError(t, b.StartSession(s, nil))
	assert.Equal(t, uint(2), s.ID)
	assert.Equal(t, s, b.Session())
	_, ok := b.Vehicle(1)
	assert.False(t, ok, "new session starts empty")
}

func TestRecording(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})

	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 5, Profile: "player"}))
	require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 5, Tick: 1}))
	require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 5, Tick: 2}))
	require.NoError(t, b.RecordWaypoint(&core.WaypointEvent{VehicleID: 5, Tick: 2, Reached: 0, Next: 1}))
	// unknown vehicle is ignored
	require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 99, Tick: 1}))

	rec, ok := b.Vehicle(5)
	require.True(t, ok)
	assert.Len(t, rec.Steps, 2)
	assert.Len(t, rec.Waypoints, 1)

	assert.Equal(t, map[string]int{"vehicles": 1, "steps": 2, "waypoints": 1}, b.Pending())
}

func TestVehicle_ReturnsCopy(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 5}))
	require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 5, Tick: 1}))

	rec, _ := b.Vehicle(5)
	rec.Steps[0].Tick = 100

	again, _ := b.Vehicle(5)
	assert.Equal(t, uint(1), again.Steps[0].Tick)
}

func TestRecording_WithoutSession(t *testing.T) {
	b := New(config.MemoryConfig{})

	assert.ErrorIs(t, b.AddVehicle(&core.Vehicle{ID: 1}), ErrNoSession)
	assert.ErrorIs(t, b.RecordStep(&core.StepSample{VehicleID: 1}), ErrNoSession)
	assert.ErrorIs(t, b.RecordWaypoint(&core.WaypointEvent{VehicleID: 1}), ErrNoSession)
	assert.NoError(t, b.EndSession())
	assert.Empty(t, b.ExportedFilePath())
}

func TestEndSession_StopsRecording(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.EndSession())

	assert.Nil(t, b.Session())
	assert.ErrorIs(t, b.RecordStep(&core.StepSample{}), ErrNoSession)
	assert.NoError(t, b.Close())
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "Grand_Prix_20260314_150926.json", ExportFileName("Grand Prix", sessionStart, false))
	assert.Equal(t, "a_b_20260314_150926.json.gz", ExportFileName("a:b", sessionStart, true))
	assert.Equal(t, "session_20260314_150926.json", ExportFileName("", sessionStart, false))
}

func readExport(t *testing.T, path string, compressed bool) SessionExport {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var export SessionExport
	if compressed {
		gz, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer gz.Close()
		require.NoError(t, json.NewDecoder(gz).Decode(&export))
	} else {
		require.NoError(t, json.NewDecoder(f).Decode(&export))
	}
	return export
}

func recordLap(t *testing.T, b *Backend) {
	t.Helper()
	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 2, Profile: "ai", TrackName: "oval"}))
	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 1, Profile: "player", TrackName: "oval", JoinTick: 3}))
	require.NoError(t, b.RecordStep(&core.StepSample{
		VehicleID: 1, Tick: 10, Position: mgl64.Vec3{1, 2, 3}, Yaw: 90, Speed: 5,
		Signals: core.Signals{Steer: 0.5, Throttle: 1, Handbrake: true}, WaypointIndex: 1, MotorTorque: 10,
	}))
	require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 2, Tick: 12}))
	require.NoError(t, b.RecordWaypoint(&core.WaypointEvent{VehicleID: 1, Tick: 11, Reached: 1, Next: 0, Lap: 1}))
}

func TestExport_JSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir})
	recordLap(t, b)
	require.NoError(t, b.EndSession())

	path := b.ExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Grand_Prix_20260314_150926.json"), path)

	export := readExport(t, path, false)
	assert.Equal(t, "Grand Prix", export.SessionName)
	assert.Equal(t, "1.2.3", export.ExtensionVersion)
	assert.Equal(t, uint(12), export.EndTick)
	assert.JSONEq(t, `{"player":{"reachRadius":25}}`, string(export.Settings))

	require.NotNil(t, export.Track)
	assert.Equal(t, [][3]float64{{0, 0, 0}, {10, 0, 0}}, export.Track.Waypoints)

	require.Len(t, export.Vehicles, 2)
	player := export.Vehicles[0]
	assert.Equal(t, uint16(1), player.ID, "vehicles sorted by id")
	assert.Equal(t, 1, player.Laps)
	require.Len(t, player.Steps, 1)
	step := player.Steps[0]
	assert.Equal(t, float64(10), step[0])
	assert.Equal(t, []any{1.0, 2.0, 3.0}, step[1])
	assert.Equal(t, float64(1), step[7], "handbrake as 0/1")
	assert.Equal(t, []any{11.0, 1.0, 0.0, 1.0}, player.Waypoints[0])
}

func TestExport_Gzip(t *testing.T) {
	dir := t.TempDir()
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	recordLap(t, b)
	require.NoError(t, b.EndSession())

	path := b.ExportedFilePath()
	assert.Equal(t, ".gz", filepath.Ext(path))
	export := readExport(t, path, true)
	assert.Len(t, export.Vehicles, 2)
}

func TestExport_InvalidSettingsOmitted(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	s := newSession()
	s.Settings = []byte("{broken")
	require.NoError(t, b.StartSession(s, nil))
	require.NoError(t, b.EndSession())

	export := readExport(t, b.ExportedFilePath(), false)
	assert.Nil(t, export.Settings)
	assert.Nil(t, export.Track)
	assert.Empty(t, export.Vehicles)
}
