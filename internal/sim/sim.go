// Package sim replays a scenario offline: every car runs its controller
// against a kinematic stand-in for the host physics, in fixed time steps.
//
// Each step has three passes:
//
//  1. Control - every car computes its actuation from the state at the start
//     of the step, querying obstacles against that same state.
//  2. Motion - every car integrates its actuation.
//  3. Camera - the chase camera samples its target and renders one frame.
//
// Identical input always produces identical output.
package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RacingGame/vehiclectl/internal/agent"
	"github.com/RacingGame/vehiclectl/internal/camera"
	"github.com/RacingGame/vehiclectl/internal/track"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// MaxSteps caps how many fixed steps one scenario may run.
const MaxSteps = 1_000_000

var (
	// ErrNoVehicles is returned for a scenario without cars.
	ErrNoVehicles = errors.New("scenario has no vehicles")
	// ErrTooManySteps is returned when run_time / time_step exceeds MaxSteps.
	ErrTooManySteps = errors.New("scenario runs too many steps")
)

// epoch anchors sample timestamps so recordings of the same scenario match.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Recorder receives telemetry while a scenario runs.
type Recorder interface {
	RecordStep(*core.StepSample) error
	RecordWaypoint(*core.WaypointEvent) error
}

// Runner holds the state of one scenario run.
type Runner struct {
	meta  Meta
	steps uint
	track *track.Track
	world *world
	cars  []*car

	cam       *camera.Camera
	camTarget *car

	recorder Recorder
}

// New validates a scenario and places its cars.
func New(sc Scenario) (*Runner, error) {
	if !(sc.Meta.TimeStep > 0) || math.IsInf(sc.Meta.TimeStep, 0) {
		return nil, fmt.Errorf("time_step must be positive and finite, got %v", sc.Meta.TimeStep)
	}
	if !(sc.Meta.RunTime >= 0) || math.IsInf(sc.Meta.RunTime, 0) {
		return nil, fmt.Errorf("run_time must be finite and not negative, got %v", sc.Meta.RunTime)
	}
	n := math.Floor(sc.Meta.RunTime/sc.Meta.TimeStep+1e-9) + 1
	if n > MaxSteps {
		return nil, fmt.Errorf("%w: %.0f > %d", ErrTooManySteps, n, MaxSteps)
	}
	if len(sc.Vehicles) == 0 {
		return nil, ErrNoVehicles
	}

	name := sc.TrackName
	if name == "" {
		name = sc.Meta.ScenarioID
	}
	var tr *track.Track
	if len(sc.Track) > 0 {
		var err error
		if tr, err = track.New(name, sc.Track); err != nil {
			return nil, err
		}
	}

	r := &Runner{
		meta:  sc.Meta,
		steps: uint(n),
		track: tr,
		world: &world{static: sc.Obstacles},
	}

	seen := make(map[uint16]bool, len(sc.Vehicles))
	for _, v := range sc.Vehicles {
		if seen[v.ID] {
			return nil, fmt.Errorf("vehicle %d listed twice", v.ID)
		}
		seen[v.ID] = true

		profile, err := agent.ParseProfile(v.Profile)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", v.ID, err)
		}
		cfg := agent.DefaultConfig(profile)
		if v.Config != nil {
			cfg = *v.Config
			cfg.Policy.Source = agent.DefaultConfig(profile).Policy.Source
			cfg.Actuation.Drive = agent.DefaultConfig(profile).Actuation.Drive
		}
		ctrl, err := agent.New(profile, cfg, tr)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", v.ID, err)
		}
		c := &car{
			id:       v.ID,
			body:     v.Body.withDefaults(),
			ctrl:     ctrl,
			position: v.Start,
			yaw:      core.NormalizeDegrees(v.Yaw),
			speed:    v.Speed,
			inputs:   v.Inputs,
		}
		r.cars = append(r.cars, c)
	}
	r.world.cars = r.cars

	if cs := sc.Camera; cs != nil {
		for _, c := range r.cars {
			if c.id == cs.Follow {
				r.camTarget = c
			}
		}
		if r.camTarget == nil {
			return nil, fmt.Errorf("camera follows unknown vehicle %d", cs.Follow)
		}
		cfg := camera.DefaultConfig(cs.Distance, cs.Height)
		cfg.Exponential = cs.Exponential

		// start already in place behind the target
		p := r.camTarget.pose()
		start := core.CameraTransform{
			Position: p.Position.Sub(p.Forward().Mul(cs.Distance)).Add(core.Up.Mul(cs.Height)),
			Rotation: core.YawRotation(r.camTarget.yaw),
		}
		r.cam = camera.New(cfg, start)
	}
	return r, nil
}

// SetRecorder sends step samples and waypoint events to rec.
func (r *Runner) SetRecorder(rec Recorder) { r.recorder = rec }

// Track returns the scenario track, nil when every car is manual.
func (r *Runner) Track() *track.Track { return r.track }

// Run executes the scenario and returns the log.
func (r *Runner) Run() (Log, error) {
	dt := r.meta.TimeStep
	log := Log{Meta: r.meta, Output: make([]LogRow, 0, r.steps)}
	for tick := range r.steps {
		row, err := r.step(tick, float64(tick)*dt, dt)
		if err != nil {
			return Log{}, fmt.Errorf("at t=%.2f: %w", float64(tick)*dt, err)
		}
		log.Output = append(log.Output, row)
	}
	return log, nil
}

func (r *Runner) step(tick uint, now, dt float64) (LogRow, error) {
	// Pass 1: control against the start-of-step world.
	acts := make([]core.Actuation, len(r.cars))
	for i, c := range r.cars {
		if in, ok := c.input(now); ok {
			c.ctrl.SetInput(in)
		}
		acts[i] = c.ctrl.FixedUpdate(c.state(), sensor{w: r.world, self: c})
	}

	// Pass 2: motion.
	for i, c := range r.cars {
		c.integrate(acts[i], dt)
	}

	row := LogRow{Tick: tick, Timestamp: now, Vehicles: make([]VehicleLog, len(r.cars))}
	for i, c := range r.cars {
		st := c.state()
		row.Vehicles[i] = VehicleLog{
			ID:             c.id,
			Position:       c.position,
			Yaw:            c.yaw,
			Speed:          c.speed,
			WheelSpeed:     st.WheelSpeed(),
			Signals:        c.ctrl.Signals(),
			ObstacleFactor: c.ctrl.ObstacleFactor(),
			WaypointIndex:  c.ctrl.WaypointIndex(),
			Lap:            c.ctrl.Laps(),
		}
		if err := r.record(tick, now, c, st, acts[i]); err != nil {
			return LogRow{}, fmt.Errorf("vehicle %d: %w", c.id, err)
		}
	}

	// Pass 3: camera.
	if r.cam != nil {
		st := r.camTarget.state()
		r.cam.FixedUpdate(st)
		tr := r.cam.LateUpdate(st.Pose, dt)
		row.Camera = &tr
	}
	return row, nil
}

func (r *Runner) record(tick uint, now float64, c *car, st core.VehicleState, act core.Actuation) error {
	if r.recorder == nil {
		return nil
	}
	at := epoch.Add(time.Duration(now * float64(time.Second)))

	var torque float64
	for _, w := range act.Wheels {
		torque += w.MotorTorque
	}
	err := r.recorder.RecordStep(&core.StepSample{
		VehicleID:     c.id,
		Time:          at,
		Tick:          tick,
		Position:      c.position,
		Yaw:           c.yaw,
		Speed:         c.speed,
		WheelSpeed:    st.WheelSpeed(),
		Signals:       c.ctrl.Signals(),
		WaypointIndex: c.ctrl.WaypointIndex(),
		MotorTorque:   torque,
	})
	if err != nil {
		return err
	}
	if adv, ok := c.ctrl.Advanced(); ok {
		return r.recorder.RecordWaypoint(&core.WaypointEvent{
			VehicleID: c.id,
			Time:      at,
			Tick:      tick,
			Reached:   adv.Reached,
			Next:      adv.Next,
			Lap:       adv.Lap,
		})
	}
	return nil
}

// RunJSON accepts a JSON-encoded Scenario, runs it and returns the
// JSON-encoded Log.
func RunJSON(input string) (string, error) {
	var sc Scenario
	if err := json.Unmarshal([]byte(input), &sc); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}
	r, err := New(sc)
	if err != nil {
		return "", err
	}
	log, err := r.Run()
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
