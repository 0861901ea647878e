// Package memory implements the storage.Backend interface in memory and
// exports each session to a JSON file when it ends.
package memory

import (
	"errors"
	"sort"
	"sync"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// ErrNoSession is returned for records that arrive outside a session.
var ErrNoSession = errors.New("memory: no active session")

// VehicleRecord groups a vehicle with all its time-series data
type VehicleRecord struct {
	Vehicle   core.Vehicle
	Steps     []core.StepSample
	Waypoints []core.WaypointEvent
}

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session
	track   *core.Track

	vehicles map[uint16]*VehicleRecord // keyed by host object id

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		vehicles: make(map[uint16]*VehicleRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(session *core.Session, track *core.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	session.ID = b.idCounter
	b.session = session
	b.track = track
	b.vehicles = make(map[uint16]*VehicleRecord)

	return nil
}

// EndSession exports the session and stops recording. Without an active
// session it does nothing.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	err := b.exportJSON()
	b.session = nil
	b.track = nil
	return err
}

// AddVehicle registers a vehicle. Registering an id again replaces its
// record.
func (b *Backend) AddVehicle(v *core.Vehicle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.vehicles[v.ID] = &VehicleRecord{
		Vehicle:   *v,
		Steps:     make([]core.StepSample, 0),
		Waypoints: make([]core.WaypointEvent, 0),
	}
	return nil
}

// RecordStep appends a step sample; samples of unregistered vehicles are
// ignored.
func (b *Backend) RecordStep(s *core.StepSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	if record, ok := b.vehicles[s.VehicleID]; ok {
		record.Steps = append(record.Steps, *s)
	}
	return nil
}

// RecordWaypoint appends a waypoint event; events of unregistered vehicles
// are ignored.
func (b *Backend) RecordWaypoint(e *core.WaypointEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	if record, ok := b.vehicles[e.VehicleID]; ok {
		record.Waypoints = append(record.Waypoints, *e)
	}
	return nil
}

// ExportedFilePath returns the file written by the last EndSession.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// Session returns the active session, or nil.
func (b *Backend) Session() *core.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// Vehicle returns a copy of the record for id.
func (b *Backend) Vehicle(id uint16) (VehicleRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	record, ok := b.vehicles[id]
	if !ok {
		return VehicleRecord{}, false
	}
	out := VehicleRecord{Vehicle: record.Vehicle}
	out.Steps = append(out.Steps, record.Steps...)
	out.Waypoints = append(out.Waypoints, record.Waypoints...)
	return out, true
}

// Pending reports how many records are held for the active session.
func (b *Backend) Pending() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	steps, waypoints := 0, 0
	for _, r := range b.vehicles {
		steps += len(r.Steps)
		waypoints += len(r.Waypoints)
	}
	return map[string]int{
		"vehicles":  len(b.vehicles),
		"steps":     steps,
		"waypoints": waypoints,
	}
}

// sortedVehicles returns records ordered by id.
func (b *Backend) sortedVehicles() []*VehicleRecord {
	out := make([]*VehicleRecord, 0, len(b.vehicles))
	for _, r := range b.vehicles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vehicle.ID < out[j].Vehicle.ID })
	return out
}
