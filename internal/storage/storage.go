// Package storage defines the telemetry recording backends.
package storage

import "github.com/RacingGame/vehiclectl/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management. track may be nil when the session's track has
	// not been loaded yet.
	StartSession(session *core.Session, track *core.Track) error
	EndSession() error

	// Vehicle registration
	AddVehicle(v *core.Vehicle) error

	// Per-step recording
	RecordStep(s *core.StepSample) error
	RecordWaypoint(e *core.WaypointEvent) error
}

// Exporter is an optional interface for backends that write a recording
// file when a session ends.
type Exporter interface {
	ExportedFilePath() string
}

// Stats is an optional interface for backends that buffer writes; the
// status command reports it.
type Stats interface {
	Pending() map[string]int
}
