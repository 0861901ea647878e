package actuation

import (
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// Actuator applies signals for one car and remembers the last command so
// held values carry over between steps. The zero value is not ready; use New.
type Actuator struct {
	cfg  Config
	last core.Actuation
}

// New returns an actuator with all wheels at regular grip.
func New(cfg Config) *Actuator {
	a := &Actuator{cfg: cfg}
	for i := range a.last.Wheels {
		a.last.Wheels[i].ForwardStiffness = 1
		a.last.Wheels[i].SidewaysStiffness = 1
	}
	return a
}

// Config returns the drivetrain configuration.
func (a *Actuator) Config() Config { return a.cfg }

// Last returns the most recent command.
func (a *Actuator) Last() core.Actuation { return a.last }

// Apply computes the wheel commands for this step. throttleScale multiplies
// the throttle before it becomes torque (1 leaves it unchanged).
func (a *Actuator) Apply(sig core.Signals, throttleScale float64, state core.VehicleState) core.Actuation {
	cfg := a.cfg
	out := a.last
	out.Downforce = state.Up().Mul(-state.LocalVelocity().Z() * cfg.SpoilerRatio)

	steer := sig.Steer * cfg.MaxSteerAngle
	torque := sig.Throttle * throttleScale * cfg.MaxTorque
	if cfg.Governor {
		ws := state.WheelSpeed()
		if !(ws < cfg.TopSpeed && ws > cfg.MaxReverseSpeed) {
			torque = 0
		}
	}

	fwdSlip, sideSlip := 1.0, 1.0
	if sig.Handbrake && state.Speed() > cfg.SlideMinSpeed {
		fwdSlip, sideSlip = cfg.HandbrakeForwardSlip, cfg.HandbrakeSidewaysSlip
	}

	for i := range out.Wheels {
		w := &out.Wheels[i]
		front := core.IsFront(i)

		if front {
			w.SteerAngle = steer
			w.BrakeTorque = 0
			if sig.Handbrake {
				w.BrakeTorque = cfg.HandbrakeTorque
			}
		} else {
			w.SteerAngle = 0
			w.BrakeTorque = 0
			w.ForwardStiffness = fwdSlip
			w.SidewaysStiffness = sideSlip
		}

		switch {
		case !cfg.Drive.driven(i):
			w.MotorTorque = 0
		case sig.Handbrake && cfg.HoldTorqueOnHandbrake:
			// keep last step's torque
		default:
			w.MotorTorque = torque
		}
	}

	a.last = out
	return out
}

// Reset returns the actuator to its initial state.
func (a *Actuator) Reset() {
	*a = *New(a.cfg)
}
