package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/internal/database"
	"github.com/RacingGame/vehiclectl/internal/logging"
	"github.com/RacingGame/vehiclectl/internal/model"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

var start = time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)

func newBackend(t *testing.T, dir string, dump time.Duration) *Backend {
	t.Helper()
	b, err := New(config.StorageConfig{
		SQLite:        config.SQLiteConfig{OutputDir: dir, DumpInterval: dump},
		FlushInterval: time.Hour,
	}, logging.NewSlogManager())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestDumpFileName(t *testing.T) {
	assert.Equal(t, "Night_Race_20260501_083000.db", DumpFileName("Night Race", start))
	assert.Equal(t, "session_20260501_083000.db", DumpFileName("", start))
}

func TestEndSession_WritesDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := newBackend(t, dir, 0)

	track := &core.Track{Name: "oval", Waypoints: []mgl64.Vec3{{0, 0, 0}, {5, 0, 0}}}
	require.NoError(t, b.StartSession(&core.Session{SessionName: "Night Race", StartTime: start}, track))
	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 3, Profile: "player", JoinTime: start}))
	require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 3, Tick: 1, Time: start}))
	assert.Empty(t, b.ExportedFilePath())

	require.NoError(t, b.EndSession())
	path := b.ExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Night_Race_20260501_083000.db"), path)

	disk, err := database.OpenSQLite(path, 0)
	require.NoError(t, err)
	var n int64
	require.NoError(t, disk.Model(&model.StepSample{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestEndSession_NoOutputDir(t *testing.T) {
	b := newBackend(t, "", 0)
	require.NoError(t, b.StartSession(&core.Session{SessionName: "x", StartTime: start}, nil))
	require.NoError(t, b.EndSession())
	assert.Empty(t, b.ExportedFilePath())
}

func TestDumpLoop_WritesPeriodically(t *testing.T) {
	dir := t.TempDir()
	b := newBackend(t, dir, 20*time.Millisecond)
	require.NoError(t, b.StartSession(&core.Session{SessionName: "loop", StartTime: start}, nil))

	path := filepath.Join(dir, DumpFileName("loop", start))
	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPending_FromEmbeddedBackend(t *testing.T) {
	b := newBackend(t, "", 0)
	require.NoError(t, b.StartSession(&core.Session{SessionName: "p", StartTime: start}, nil))
	require.NoError(t, b.RecordWaypoint(&core.WaypointEvent{VehicleID: 1, Time: start}))
	assert.Equal(t, 1, b.Pending()["waypoints"])
}
