package worker

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/internal/agent"
	"github.com/RacingGame/vehiclectl/internal/camera"
	"github.com/RacingGame/vehiclectl/internal/dispatcher"
	"github.com/RacingGame/vehiclectl/internal/geo"
	"github.com/RacingGame/vehiclectl/internal/registry"
	"github.com/RacingGame/vehiclectl/internal/track"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// RegisterHandlers registers all host commands with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.d = d

	// Session lifecycle - sync, the host waits for the id and the export
	d.Register(":SESSION:START:", m.handleSessionStart, dispatcher.Logged())
	d.Register(":SESSION:END:", m.handleSessionEnd, dispatcher.Logged())

	// Tracks and entities - sync, later calls refer to them by id
	d.Register(":TRACK:", m.handleTrack, dispatcher.Logged())
	d.Register(":TRACK:GEO:", m.handleGeoTrack, dispatcher.Logged())
	d.Register(":VEHICLE:NEW:", m.handleNewVehicle, dispatcher.Logged())
	d.Register(":CAMERA:NEW:", m.handleNewCamera, dispatcher.Logged())

	// Per-step and per-frame calls - sync, the host applies the answer at once
	d.Register(":VEHICLE:INPUT:", m.handleVehicleInput)
	d.Register(":VEHICLE:PROBE:", m.handleVehicleProbe)
	d.Register(":VEHICLE:STEP:", m.handleVehicleStep)
	d.Register(":VEHICLE:WAYPOINT:", m.handleVehicleWaypoint)
	d.Register(":CAMERA:STEP:", m.handleCameraStep)
	d.Register(":CAMERA:FRAME:", m.handleCameraFrame)

	// Telemetry - one blocking queue keeps records in order and off the step path
	d.Register(recordCommand, m.handleRecord, dispatcher.Buffered(recordBuffer), dispatcher.Blocking())
}

// TrackResult answers the track commands.
type TrackResult struct {
	Name      string  `json:"name"`
	Waypoints int     `json:"waypoints"`
	Length    float64 `json:"length"`
}

// ProbeResult is the obstacle ray the host should cast before the next step.
type ProbeResult struct {
	Enabled     bool       `json:"enabled"`
	Origin      mgl64.Vec3 `json:"origin"`
	Direction   mgl64.Vec3 `json:"direction"`
	MaxDistance float64    `json:"maxDistance"`
}

// WaypointResult answers :VEHICLE:WAYPOINT:.
type WaypointResult struct {
	Index   int         `json:"index"`
	Lap     int         `json:"lap"`
	Current *mgl64.Vec3 `json:"current,omitempty"`
	Last    *mgl64.Vec3 `json:"last,omitempty"`
}

func (m *Manager) handleTrack(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseTrack(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to load track: %w", err)
	}
	// the first entry is the waypoint container itself
	t, err := track.FromContainer(args.Name, args.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to load track %s: %w", args.Name, err)
	}
	return m.addTrack(t), nil
}

func (m *Manager) handleGeoTrack(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseGeoTrack(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to load track: %w", err)
	}
	t, err := track.New(args.Name, geo.ToLocal(args.Points))
	if err != nil {
		return nil, fmt.Errorf("failed to load track %s: %w", args.Name, err)
	}
	return m.addTrack(t), nil
}

func (m *Manager) addTrack(t *track.Track) TrackResult {
	m.deps.Registry.AddTrack(t)
	m.log().Debug("Track loaded", "track", t.Name(), "waypoints", t.Len(), "length", t.Length())
	return TrackResult{Name: t.Name(), Waypoints: t.Len(), Length: t.Length()}
}

func (m *Manager) handleNewVehicle(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseVehicle(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to register vehicle: %w", err)
	}
	profile, err := agent.ParseProfile(args.Profile)
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", args.ID, err)
	}
	cfg, err := m.deps.Profile(profile)
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", args.ID, err)
	}

	// without an explicit track the car follows the session track
	trackName := args.TrackName
	if trackName == "" && m.deps.Session.Active() {
		trackName = m.deps.Session.GetSession().TrackName
	}
	var t *track.Track
	if trackName != "" {
		if t, err = m.deps.Registry.Track(trackName); err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", args.ID, err)
		}
	}

	ctrl, err := agent.New(profile, cfg, t)
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", args.ID, err)
	}

	info := core.Vehicle{
		ID:        args.ID,
		Profile:   string(profile),
		TrackName: trackName,
		JoinTime:  m.deps.Now(),
		JoinTick:  m.deps.Session.Tick(),
	}
	m.deps.Registry.AddVehicle(info, ctrl)

	if m.deps.Session.Active() {
		if err := m.record(recordOp{kind: recordVehicle, vehicle: &info}); err != nil {
			m.log().Error("Failed to record vehicle", "vehicle", info.ID, "error", err)
		}
	}
	return nil, nil
}

func (m *Manager) handleVehicleInput(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseInput(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, m.deps.Registry.WithVehicle(args.ID, func(v *registry.Vehicle) error {
		v.Controller.SetInput(args.Input)
		return nil
	})
}

func (m *Manager) handleVehicleProbe(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseProbe(e.Args)
	if err != nil {
		return nil, err
	}
	var res ProbeResult
	err = m.deps.Registry.WithVehicle(args.ID, func(v *registry.Vehicle) error {
		ray, enabled := v.Controller.Probe(args.Pose)
		res = ProbeResult{
			Enabled:     enabled,
			Origin:      ray.Origin,
			Direction:   ray.Direction,
			MaxDistance: ray.MaxDistance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Manager) handleVehicleStep(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseStep(e.Args)
	if err != nil {
		return nil, err
	}

	recording := m.deps.Session.Active()
	at := e.Timestamp
	if at.IsZero() {
		at = m.deps.Now()
	}

	var (
		act      core.Actuation
		tick     uint
		sample   *core.StepSample
		waypoint *core.WaypointEvent
	)
	err = m.deps.Registry.WithVehicle(args.ID, func(v *registry.Vehicle) error {
		act = v.Controller.FixedUpdate(args.State, args.Hit)
		v.Steps++
		tick = v.Info.JoinTick + v.Steps
		if !recording {
			return nil
		}

		if m.sampled(v.Steps) {
			var torque float64
			for _, w := range act.Wheels {
				torque += w.MotorTorque
			}
			sample = &core.StepSample{
				VehicleID:     args.ID,
				Time:          at,
				Tick:          tick,
				Position:      args.State.Position,
				Yaw:           args.State.Yaw(),
				Speed:         args.State.Speed(),
				WheelSpeed:    args.State.WheelSpeed(),
				Signals:       v.Controller.Signals(),
				WaypointIndex: v.Controller.WaypointIndex(),
				MotorTorque:   torque,
			}
		}
		if adv, ok := v.Controller.Advanced(); ok {
			waypoint = &core.WaypointEvent{
				VehicleID: args.ID,
				Time:      at,
				Tick:      tick,
				Reached:   adv.Reached,
				Next:      adv.Next,
				Lap:       adv.Lap,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.deps.Session.Observe(tick)
	if sample != nil {
		if err := m.record(recordOp{kind: recordStep, step: sample}); err != nil {
			m.log().Error("Failed to record step", "vehicle", args.ID, "error", err)
		}
	}
	if waypoint != nil {
		if err := m.record(recordOp{kind: recordWaypoint, waypoint: waypoint}); err != nil {
			m.log().Error("Failed to record waypoint", "vehicle", args.ID, "error", err)
		}
	}
	return act, nil
}

// sampled reports whether the nth step of a car is recorded.
func (m *Manager) sampled(n uint) bool {
	if m.deps.StepInterval <= 1 {
		return true
	}
	return n%m.deps.StepInterval == 0
}

func (m *Manager) handleVehicleWaypoint(e dispatcher.Event) (any, error) {
	id, err := m.deps.Parser.ParseVehicleID(e.Args)
	if err != nil {
		return nil, err
	}
	var res WaypointResult
	err = m.deps.Registry.WithVehicle(id, func(v *registry.Vehicle) error {
		res.Index = v.Controller.WaypointIndex()
		res.Lap = v.Controller.Laps()
		if wp, ok := v.Controller.CurrentWaypoint(); ok {
			res.Current = &wp
		}
		if wp, ok := v.Controller.LastWaypoint(); ok {
			res.Last = &wp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Manager) handleNewCamera(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseCamera(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to create camera: %w", err)
	}
	cfg := m.deps.Camera()
	if args.Distance != 0 {
		cfg.Distance = args.Distance
	}
	if args.Height != 0 {
		cfg.Height = args.Height
	}
	m.deps.Registry.AddCamera(args.ID, camera.New(cfg, core.CameraTransform{Rotation: mgl64.QuatIdent()}))
	return nil, nil
}

func (m *Manager) handleCameraStep(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseCameraStep(e.Args)
	if err != nil {
		return nil, err
	}
	return nil, m.deps.Registry.WithCamera(args.ID, func(c *camera.Camera) error {
		c.FixedUpdate(args.Target)
		return nil
	})
}

func (m *Manager) handleCameraFrame(e dispatcher.Event) (any, error) {
	args, err := m.deps.Parser.ParseCameraFrame(e.Args)
	if err != nil {
		return nil, err
	}
	var out core.CameraTransform
	err = m.deps.Registry.WithCamera(args.ID, func(c *camera.Camera) error {
		out = c.LateUpdate(args.Target, args.DT)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
