package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RacingGame/vehiclectl/internal/agent"
	"github.com/RacingGame/vehiclectl/internal/camera"
	"github.com/RacingGame/vehiclectl/internal/dispatcher"
	"github.com/RacingGame/vehiclectl/internal/logging"
	"github.com/RacingGame/vehiclectl/internal/parser"
	"github.com/RacingGame/vehiclectl/internal/registry"
	"github.com/RacingGame/vehiclectl/internal/session"
	"github.com/RacingGame/vehiclectl/internal/storage"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// ErrNoSession is returned for session commands that need a running session.
var ErrNoSession = errors.New("no session running")

// recordCommand carries telemetry from the step handlers to storage. It is
// raised inside the extension and never sent by the host.
const recordCommand = ":RECORD:"

// recordBuffer is how many telemetry records may wait for storage.
const recordBuffer = 10000

// flushTimeout bounds how long :SESSION:END: waits for pending records.
const flushTimeout = 30 * time.Second

// Telemetry receives step samples besides the storage backend.
type Telemetry interface {
	RecordStep(*core.StepSample) error
	RecordWaypoint(*core.WaypointEvent) error
}

// sessionTagger is implemented by telemetry sinks that tag points with the
// session name.
type sessionTagger interface {
	SetSession(name string)
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Registry   *registry.Registry
	Session    *session.Context
	LogManager *logging.SlogManager
	Parser     *parser.Parser

	// Profile returns the controller setup for a profile.
	Profile func(agent.Profile) (agent.Config, error)
	// Camera returns the configured chase camera settings.
	Camera func() camera.Config
	// Settings returns the configuration snapshot stored with a session.
	Settings func() []byte

	// Telemetry is an optional second sink, such as InfluxDB. SetTelemetry
	// replaces it later.
	Telemetry Telemetry
	// StepInterval records every Nth step of each vehicle. Zero records all.
	StepInterval uint

	ExtensionVersion string
	ExtensionBuild   string

	Now func() time.Time
}

// Manager handles host commands
type Manager struct {
	deps Dependencies
	d    *dispatcher.Dispatcher

	mu        sync.RWMutex
	backend   storage.Backend
	telemetry Telemetry
}

// NewManager creates a new worker manager. backend may be nil until storage
// is initialized; nothing is recorded meanwhile.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Registry == nil {
		deps.Registry = registry.New()
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(nil)
	}
	if deps.Profile == nil {
		deps.Profile = func(p agent.Profile) (agent.Config, error) { return agent.DefaultConfig(p), nil }
	}
	if deps.Camera == nil {
		deps.Camera = func() camera.Config { return camera.DefaultConfig(6, 2) }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{deps: deps, backend: backend, telemetry: deps.Telemetry}
}

// SetBackend swaps the storage backend.
func (m *Manager) SetBackend(b storage.Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backend = b
}

// Backend returns the storage backend, nil before storage is initialized.
func (m *Manager) Backend() storage.Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backend
}

// SetTelemetry swaps the second telemetry sink. nil stops it.
func (m *Manager) SetTelemetry(t Telemetry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.telemetry = t
}

// Telemetry returns the second telemetry sink, if any.
func (m *Manager) Telemetry() Telemetry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.telemetry
}

// Registry returns the registry the manager works on.
func (m *Manager) Registry() *registry.Registry { return m.deps.Registry }

// Session returns the current session context.
func (m *Manager) Session() *session.Context { return m.deps.Session }

func (m *Manager) log() *slog.Logger {
	if m.deps.LogManager != nil {
		return m.deps.LogManager.Logger()
	}
	return slog.Default()
}

type recordKind int

const (
	recordVehicle recordKind = iota
	recordStep
	recordWaypoint
	recordFlush
)

// recordOp is the Payload of a :RECORD: event.
type recordOp struct {
	kind     recordKind
	vehicle  *core.Vehicle
	step     *core.StepSample
	waypoint *core.WaypointEvent
	done     chan struct{}
}

// record hands op to the :RECORD: queue, or handles it in place when no
// dispatcher is attached.
func (m *Manager) record(op recordOp) error {
	if m.d == nil {
		_, err := m.handleRecord(dispatcher.Event{Command: recordCommand, Payload: op})
		return err
	}
	_, err := m.d.Dispatch(dispatcher.Event{
		Command:   recordCommand,
		Payload:   op,
		Timestamp: m.deps.Now(),
	})
	return err
}

// flushRecords waits until every record queued before the call is handled.
func (m *Manager) flushRecords() error {
	done := make(chan struct{})
	if err := m.record(recordOp{kind: recordFlush, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-time.After(flushTimeout):
		return fmt.Errorf("timed out after %s waiting for pending records", flushTimeout)
	}
}

func (m *Manager) handleRecord(e dispatcher.Event) (any, error) {
	op, ok := e.Payload.(recordOp)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", e.Payload)
	}
	if op.kind == recordFlush {
		close(op.done)
		return nil, nil
	}

	var errs []error
	if b := m.Backend(); b != nil {
		switch op.kind {
		case recordVehicle:
			errs = append(errs, b.AddVehicle(op.vehicle))
		case recordStep:
			errs = append(errs, b.RecordStep(op.step))
		case recordWaypoint:
			errs = append(errs, b.RecordWaypoint(op.waypoint))
		}
	}
	if t := m.Telemetry(); t != nil {
		switch op.kind {
		case recordStep:
			errs = append(errs, t.RecordStep(op.step))
		case recordWaypoint:
			errs = append(errs, t.RecordWaypoint(op.waypoint))
		}
	}
	return nil, errors.Join(errs...)
}
