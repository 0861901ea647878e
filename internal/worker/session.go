package worker

import (
	"errors"
	"fmt"

	"github.com/RacingGame/vehiclectl/internal/dispatcher"
	"github.com/RacingGame/vehiclectl/internal/registry"
	"github.com/RacingGame/vehiclectl/internal/storage"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// SessionResult answers :SESSION:START:.
type SessionResult struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	TrackName string `json:"trackName"`
	Vehicles  int    `json:"vehicles"`
}

// EndResult answers :SESSION:END:.
type EndResult struct {
	Name string `json:"name"`
	Tick uint   `json:"tick"`
	// File is the exported recording, empty when the backend keeps no file.
	File string `json:"file,omitempty"`
}

func (m *Manager) handleSessionStart(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseSession(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	var track *core.Track
	if args.TrackName != "" {
		t, err := m.deps.Registry.Track(args.TrackName)
		if err != nil {
			return nil, fmt.Errorf("failed to start session: %w", err)
		}
		track = &core.Track{Name: t.Name(), Waypoints: t.Points(), Length: t.Length()}
	}

	// a new start closes whatever is still running
	if m.deps.Session.Active() {
		if _, err := m.endSession(); err != nil {
			m.log().Warn("Failed to end previous session", "error", err)
		}
	}

	s := &core.Session{
		SessionName:      args.Name,
		TrackName:        args.TrackName,
		StartTime:        m.deps.Now(),
		ExtensionVersion: m.deps.ExtensionVersion,
		ExtensionBuild:   m.deps.ExtensionBuild,
	}
	if m.deps.Settings != nil {
		s.Settings = m.deps.Settings()
	}

	if b := m.Backend(); b != nil {
		if err := b.StartSession(s, track); err != nil {
			return nil, fmt.Errorf("failed to start session in storage: %w", err)
		}
	}
	if t, ok := m.Telemetry().(sessionTagger); ok {
		t.SetSession(s.SessionName)
	}
	m.deps.Session.Start(s, track)

	// cars registered before the start join at tick zero from the first
	// waypoint
	ids := m.deps.Registry.VehicleIDs()
	for _, id := range ids {
		var info core.Vehicle
		err := m.deps.Registry.WithVehicle(id, func(v *registry.Vehicle) error {
			v.Controller.Reset()
			v.Steps = 0
			v.Info.JoinTick = 0
			v.Info.JoinTime = s.StartTime
			info = v.Info
			return nil
		})
		if err != nil {
			continue
		}
		if err := m.record(recordOp{kind: recordVehicle, vehicle: &info}); err != nil {
			m.log().Error("Failed to record vehicle", "vehicle", id, "error", err)
		}
	}

	m.log().Info("Session started", "session", s.SessionName, "track", s.TrackName, "vehicles", len(ids))
	return SessionResult{ID: s.ID, Name: s.SessionName, TrackName: s.TrackName, Vehicles: len(ids)}, nil
}

func (m *Manager) handleSessionEnd(dispatcher.Event) (any, error) {
	return m.endSession()
}

// endSession drains pending records into storage, then closes the session
// there so the export sees every sample.
func (m *Manager) endSession() (EndResult, error) {
	if !m.deps.Session.Active() {
		return EndResult{}, ErrNoSession
	}
	res := EndResult{
		Name: m.deps.Session.GetSession().SessionName,
		Tick: m.deps.Session.Tick(),
	}

	var errs []error
	if err := m.flushRecords(); err != nil {
		errs = append(errs, fmt.Errorf("flushing records: %w", err))
	}
	if b := m.Backend(); b != nil {
		if err := b.EndSession(); err != nil {
			errs = append(errs, fmt.Errorf("ending session in storage: %w", err))
		}
		if ex, ok := b.(storage.Exporter); ok {
			res.File = ex.ExportedFilePath()
		}
	}
	m.deps.Session.End()

	if err := errors.Join(errs...); err != nil {
		return res, err
	}
	m.log().Info("Session ended", "session", res.Name, "tick", res.Tick, "file", res.File)
	return res, nil
}

// Close ends a running session and forgets every vehicle and camera. The
// host calls it when unloading.
func (m *Manager) Close() error {
	defer m.deps.Registry.Reset()
	if !m.deps.Session.Active() {
		return nil
	}
	_, err := m.endSession()
	return err
}
