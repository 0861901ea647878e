// Package gormstorage implements the storage.Backend interface on GORM with
// internal queues and a background DB writer goroutine. The sqlite and
// postgres backends supply the connection.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RacingGame/vehiclectl/internal/database"
	"github.com/RacingGame/vehiclectl/internal/logging"
	"github.com/RacingGame/vehiclectl/internal/model"
	"github.com/RacingGame/vehiclectl/internal/model/convert"
	"github.com/RacingGame/vehiclectl/internal/queue"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// ErrNoSession is returned for records that arrive outside a session.
var ErrNoSession = errors.New("gorm storage: no active session")

const (
	defaultFlushInterval = 2 * time.Second
	defaultBatchSize     = 2000
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	// DB is used as is when set; otherwise Init calls Open.
	DB   *gorm.DB
	Open func() (*gorm.DB, error)

	LogManager *logging.SlogManager

	BatchSize     int
	QueueLimit    int
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Vehicles  *queue.Queue[model.Vehicle]
	Steps     *queue.Queue[model.StepSample]
	Waypoints *queue.Queue[model.WaypointEvent]
}

func newQueues(limit int) *queues {
	return &queues{
		Vehicles:  queue.New[model.Vehicle](),
		Steps:     queue.NewBounded[model.StepSample](limit),
		Waypoints: queue.NewBounded[model.WaypointEvent](limit),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64

	// flushMu serializes queue drains between the writer and callers
	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultBatchSize
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(deps.QueueLimit),
	}
}

func (b *Backend) log() *slog.Logger {
	if b.deps.LogManager == nil {
		return slog.Default()
	}
	return b.deps.LogManager.Logger()
}

// DB returns the connection, nil before Init.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init connects if needed, runs schema migration and starts the DB writer
// goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		if b.deps.Open == nil {
			return fmt.Errorf("no database connection configured")
		}
		db, err := b.deps.Open()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		b.deps.DB = db
	}

	b.log().Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	<-b.done
	b.stopChan = nil
	return nil
}

// StartSession stores the track (get-or-create by name, waypoints
// refreshed) and inserts the session row.
func (b *Backend) StartSession(session *core.Session, track *core.Track) error {
	if b.deps.DB == nil {
		return fmt.Errorf("backend not initialized")
	}
	if err := b.Flush(); err != nil {
		b.log().Error("Flush before new session failed", "error", err)
	}

	db := b.deps.DB
	row := convert.CoreToSession(*session)
	row.ID = 0

	if track != nil {
		gormTrack := convert.CoreToTrack(*track)
		var existing model.Track
		err := db.Where(model.Track{Name: gormTrack.Name}).
			Assign(model.Track{
				WaypointCount: gormTrack.WaypointCount,
				Length:        gormTrack.Length,
				Waypoints:     gormTrack.Waypoints,
				Loop:          gormTrack.Loop,
			}).
			FirstOrCreate(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to get or insert track: %w", err)
		}
		track.ID = existing.ID
		row.TrackID = &existing.ID
	}

	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}

	session.ID = row.ID
	b.sessionID.Store(uint64(row.ID))
	b.log().Info("Session stored", "sessionId", row.ID, "track", session.TrackName)
	return nil
}

// EndSession writes everything still queued and stops accepting records.
func (b *Backend) EndSession() error {
	err := b.Flush()
	b.sessionID.Store(0)
	return err
}

func (b *Backend) currentSession() (uint, error) {
	id := uint(b.sessionID.Load())
	if id == 0 {
		return 0, ErrNoSession
	}
	return id, nil
}

// AddVehicle queues the vehicle row.
func (b *Backend) AddVehicle(v *core.Vehicle) error {
	id, err := b.currentSession()
	if err != nil {
		return err
	}
	gormObj := convert.CoreToVehicle(*v)
	gormObj.SessionID = id
	b.queues.Vehicles.Push(gormObj)
	return nil
}

// RecordStep queues a step sample.
func (b *Backend) RecordStep(s *core.StepSample) error {
	id, err := b.currentSession()
	if err != nil {
		return err
	}
	gormObj := convert.CoreToStepSample(*s)
	gormObj.SessionID = id
	if dropped := b.queues.Steps.Push(gormObj); dropped > 0 {
		b.log().Warn("Step queue full, dropped oldest samples", "dropped", dropped)
	}
	return nil
}

// RecordWaypoint queues a waypoint event.
func (b *Backend) RecordWaypoint(e *core.WaypointEvent) error {
	id, err := b.currentSession()
	if err != nil {
		return err
	}
	gormObj := convert.CoreToWaypointEvent(*e)
	gormObj.SessionID = id
	b.queues.Waypoints.Push(gormObj)
	return nil
}

// Pending reports the queue lengths.
func (b *Backend) Pending() map[string]int {
	return map[string]int{
		"vehicles":  b.queues.Vehicles.Len(),
		"steps":     b.queues.Steps.Len(),
		"waypoints": b.queues.Waypoints.Len(),
	}
}

// Flush writes every queued row now. Rows of a failed batch go back to
// their queue.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	db := b.deps.DB
	batch := b.deps.BatchSize
	var errs []error

	// vehicles may be registered again with a new profile
	if _, err := writeQueue(db, b.queues.Vehicles, batch, func(tx *gorm.DB, items []model.Vehicle) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&items).Error
	}); err != nil {
		errs = append(errs, fmt.Errorf("vehicles: %w", err))
	}
	if _, err := writeQueue(db, b.queues.Steps, batch, createAll[model.StepSample]); err != nil {
		errs = append(errs, fmt.Errorf("step samples: %w", err))
	}
	if _, err := writeQueue(db, b.queues.Waypoints, batch, createAll[model.WaypointEvent]); err != nil {
		errs = append(errs, fmt.Errorf("waypoint events: %w", err))
	}
	return errors.Join(errs...)
}

func createAll[T any](tx *gorm.DB, items []T) error {
	return tx.Create(&items).Error
}

// writeQueue drains q in batches, one transaction per batch.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], batch int, create func(*gorm.DB, []T) error) (int, error) {
	written := 0
	for {
		items := q.Drain(batch)
		if len(items) == 0 {
			return written, nil
		}
		tx := db.Begin()
		if err := create(tx, items); err != nil {
			tx.Rollback()
			q.Push(items...)
			return written, err
		}
		if err := tx.Commit().Error; err != nil {
			q.Push(items...)
			return written, err
		}
		written += len(items)
	}
}

func (b *Backend) writerLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			if err := b.Flush(); err != nil {
				b.log().Error("Final flush failed", "error", err)
			}
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Flush(); err != nil {
				b.log().Error("DB writer flush failed", "error", err)
				continue
			}
			if d := time.Since(start); d > b.deps.FlushInterval {
				b.log().Warn("DB writer falling behind", "duration", d)
			}
		}
	}
}
