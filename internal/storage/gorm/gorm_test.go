package gormstorage

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/RacingGame/vehiclectl/internal/database"
	"github.com/RacingGame/vehiclectl/internal/model"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

func newSQLiteBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSQLite("", 0)
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour, BatchSize: 2})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func startSession(t *testing.T, b *Backend) (*core.Session, *core.Track) {
	t.Helper()
	s := &core.Session{SessionName: "race", TrackName: "oval", StartTime: time.Now(), Settings: []byte(`{"a":1}`)}
	tr := &core.Track{Name: "oval", Waypoints: []mgl64.Vec3{{0, 0, 0}, {10, 0, 0}, {10, 0, 10}}}
	require.NoError(t, b.StartSession(s, tr))
	return s, tr
}

func count(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestInit_RequiresConnection(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())

	b = New(Dependencies{Open: func() (*gorm.DB, error) { return nil, errors.New("refused") }})
	assert.ErrorContains(t, b.Init(), "refused")
}

func TestInit_UsesOpen(t *testing.T) {
	b := New(Dependencies{Open: func() (*gorm.DB, error) { return database.OpenSQLite("", 0) }})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NotNil(t, b.DB())
	assert.True(t, b.DB().Migrator().HasTable(&model.StepSample{}))
}

func TestNew_Defaults(t *testing.T) {
	b := New(Dependencies{})
	assert.Equal(t, defaultBatchSize, b.deps.BatchSize)
	assert.Equal(t, defaultFlushInterval, b.deps.FlushInterval)
	assert.NoError(t, b.Close(), "close before init is a no-op")
	assert.NoError(t, b.Flush())
}

func TestRecording_WithoutSession(t *testing.T) {
	b := newSQLiteBackend(t)

	assert.ErrorIs(t, b.AddVehicle(&core.Vehicle{ID: 1}), ErrNoSession)
	assert.ErrorIs(t, b.RecordStep(&core.StepSample{}), ErrNoSession)
	assert.ErrorIs(t, b.RecordWaypoint(&core.WaypointEvent{}), ErrNoSession)
}

func TestStartSession_StoresTrackAndSession(t *testing.T) {
	b := newSQLiteBackend(t)
	s, tr := startSession(t, b)

	assert.NotZero(t, s.ID)
	assert.NotZero(t, tr.ID)

	var names []string
	require.NoError(t, b.DB().Model(&model.Track{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"oval"}, names)

	var lengths []float64
	require.NoError(t, b.DB().Model(&model.Track{}).Pluck("length", &lengths).Error)
	require.Len(t, lengths, 1)
	assert.InDelta(t, 10+10+14.142135623730951, lengths[0], 1e-9)

	var trackIDs []uint
	require.NoError(t, b.DB().Model(&model.Session{}).Pluck("track_id", &trackIDs).Error)
	assert.Equal(t, []uint{tr.ID}, trackIDs)
}

func TestStartSession_ReusesTrackByName(t *testing.T) {
	b := newSQLiteBackend(t)
	_, first := startSession(t, b)
	_, second := startSession(t, b)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), count(t, b.DB(), &model.Track{}))
	assert.Equal(t, int64(2), count(t, b.DB(), &model.Session{}))
}

func TestStartSession_NotInitialized(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.StartSession(&core.Session{}, nil))
}

func TestFlush_WritesInBatches(t *testing.T) {
	b := newSQLiteBackend(t)
	s, _ := startSession(t, b)

	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 7, Profile: "ai", JoinTime: time.Now()}))
	for tick := uint(1); tick <= 5; tick++ {
		require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 7, Tick: tick, Time: time.Now(), Position: mgl64.Vec3{1, 2, 3}}))
	}
	require.NoError(t, b.RecordWaypoint(&core.WaypointEvent{VehicleID: 7, Tick: 5, Reached: 0, Next: 1, Time: time.Now()}))
	assert.Equal(t, map[string]int{"vehicles": 1, "steps": 5, "waypoints": 1}, b.Pending())

	require.NoError(t, b.Flush())
	assert.Equal(t, map[string]int{"vehicles": 0, "steps": 0, "waypoints": 0}, b.Pending())

	assert.Equal(t, int64(1), count(t, b.DB(), &model.Vehicle{}))
	assert.Equal(t, int64(5), count(t, b.DB(), &model.StepSample{}))
	assert.Equal(t, int64(1), count(t, b.DB(), &model.WaypointEvent{}))

	var sessionIDs []uint
	require.NoError(t, b.DB().Model(&model.StepSample{}).Distinct().Pluck("session_id", &sessionIDs).Error)
	assert.Equal(t, []uint{s.ID}, sessionIDs)

	var ticks []uint
	require.NoError(t, b.DB().Model(&model.StepSample{}).Order("tick").Pluck("tick", &ticks).Error)
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, ticks)
}

func TestAddVehicle_ReRegisterUpserts(t *testing.T) {
	b := newSQLiteBackend(t)
	startSession(t, b)

	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 7, Profile: "ai", JoinTime: time.Now()}))
	require.NoError(t, b.Flush())
	require.NoError(t, b.AddVehicle(&core.Vehicle{ID: 7, Profile: "manual", JoinTime: time.Now()}))
	require.NoError(t, b.Flush())

	var profiles []string
	require.NoError(t, b.DB().Model(&model.Vehicle{}).Pluck("profile", &profiles).Error)
	assert.Equal(t, []string{"manual"}, profiles)
}

func TestEndSession_FlushesAndCloses(t *testing.T) {
	b := newSQLiteBackend(t)
	startSession(t, b)
	require.NoError(t, b.RecordStep(&core.StepSample{VehicleID: 1, Tick: 1, Time: time.Now()}))

	require.NoError(t, b.EndSession())
	assert.Equal(t, int64(1), count(t, b.DB(), &model.StepSample{}))
	assert.ErrorIs(t, b.RecordStep(&core.StepSample{}), ErrNoSession)
}

func TestClose_FinalFlush(t *testing.T) {
	db, err := database.OpenSQLite("", 0)
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	startSession(t, b)
	require.NoError(t, b.RecordWaypoint(&core.WaypointEvent{VehicleID: 1, Time: time.Now()}))

	require.NoError(t, b.Close())
	assert.Equal(t, int64(1), count(t, db, &model.WaypointEvent{}))
	assert.NoError(t, b.Close())
}

func TestBoundedStepQueue(t *testing.T) {
	db, err := database.OpenSQLite("", 0)
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour, QueueLimit: 3})
	require.NoError(t, b.Init())
	defer b.Close()
	startSession(t, b)

	for tick := uint(1); tick <= 5; tick++ {
		require.NoError(t, b.RecordStep(&core.StepSample{Tick: tick, Time: time.Now()}))
	}
	require.NoError(t, b.Flush())

	var ticks []uint
	require.NoError(t, db.Model(&model.StepSample{}).Order("tick").Pluck("tick", &ticks).Error)
	assert.Equal(t, []uint{3, 4, 5}, ticks, "oldest samples dropped")
}
