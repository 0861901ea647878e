package actuation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

func state(vel mgl64.Vec3, rpm float64) core.VehicleState {
	return core.VehicleState{
		Pose:        core.NewPose(mgl64.Vec3{}, mgl64.QuatIdent()),
		Velocity:    vel,
		WheelRPM:    rpm,
		WheelRadius: 0.5,
	}
}

func TestApplySteerAndDrive(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		driven [core.WheelCount]bool
	}{
		{name: "rear drive", cfg: PlayerConfig(), driven: [core.WheelCount]bool{false, false, true, true}},
		{name: "front drive", cfg: AIConfig(), driven: [core.WheelCount]bool{true, true, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.cfg)
			out := a.Apply(core.Signals{Steer: 0.5, Throttle: 0.5}, 1, state(mgl64.Vec3{}, 0))

			for i, w := range out.Wheels {
				if core.IsFront(i) {
					assert.Equal(t, 0.5*tt.cfg.MaxSteerAngle, w.SteerAngle)
				} else {
					assert.Equal(t, 0.0, w.SteerAngle)
				}
				if tt.driven[i] {
					assert.Equal(t, 0.5*tt.cfg.MaxTorque, w.MotorTorque, "wheel %d", i)
				} else {
					assert.Equal(t, 0.0, w.MotorTorque, "wheel %d", i)
				}
				assert.Equal(t, 0.0, w.BrakeTorque)
				assert.Equal(t, 1.0, w.ForwardStiffness)
				assert.Equal(t, 1.0, w.SidewaysStiffness)
			}
		})
	}
}

func TestGovernor(t *testing.T) {
	// wheel speed = 0.5 * rpm * pi * 0.12
	perRPM := 0.5 * 3.141592653589793 * 0.12
	tests := []struct {
		name       string
		wheelSpeed float64
		wantTorque bool
	}{
		{name: "inside band", wheelSpeed: 80, wantTorque: true},
		{name: "just past top speed", wheelSpeed: 150.01, wantTorque: false},
		{name: "above top speed", wheelSpeed: 200, wantTorque: false},
		{name: "just past max reverse", wheelSpeed: -50.01, wantTorque: false},
		{name: "beyond max reverse", wheelSpeed: -70, wantTorque: false},
		{name: "slow reverse", wheelSpeed: -20, wantTorque: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(PlayerConfig())
			out := a.Apply(core.Signals{Throttle: 1}, 1, state(mgl64.Vec3{}, tt.wheelSpeed/perRPM))
			rl := out.Wheels[core.WheelRearLeft].MotorTorque
			rr := out.Wheels[core.WheelRearRight].MotorTorque
			if tt.wantTorque {
				assert.Equal(t, 10.0, rl)
				assert.Equal(t, 10.0, rr)
			} else {
				assert.Equal(t, 0.0, rl)
				assert.Equal(t, 0.0, rr)
			}
		})
	}

	a := New(AIConfig())
	out := a.Apply(core.Signals{Throttle: 1}, 1, state(mgl64.Vec3{}, 1e6))
	assert.Equal(t, 50.0, out.Wheels[core.WheelFrontLeft].MotorTorque, "no governor on the opponent car")
}

func TestHandbrakeSlide(t *testing.T) {
	a := New(AIConfig())
	out := a.Apply(core.Signals{Handbrake: true}, 1, state(mgl64.Vec3{0, 0, 8}, 0))

	assert.Equal(t, 100.0, out.Wheels[core.WheelFrontLeft].BrakeTorque)
	assert.Equal(t, 100.0, out.Wheels[core.WheelFrontRight].BrakeTorque)
	assert.Equal(t, 0.0, out.Wheels[core.WheelRearLeft].BrakeTorque)
	for _, i := range []int{core.WheelRearLeft, core.WheelRearRight} {
		assert.Equal(t, 0.04, out.Wheels[i].ForwardStiffness)
		assert.Equal(t, 0.08, out.Wheels[i].SidewaysStiffness)
	}
	assert.Equal(t, 1.0, out.Wheels[core.WheelFrontLeft].ForwardStiffness)

	// below the slide speed the car skids to a stop on regular grip
	out = a.Apply(core.Signals{Handbrake: true}, 1, state(mgl64.Vec3{0, 0, 0.5}, 0))
	assert.Equal(t, 100.0, out.Wheels[core.WheelFrontLeft].BrakeTorque)
	assert.Equal(t, 1.0, out.Wheels[core.WheelRearLeft].ForwardStiffness)

	out = a.Apply(core.Signals{}, 1, state(mgl64.Vec3{0, 0, 8}, 0))
	assert.Equal(t, 0.0, out.Wheels[core.WheelFrontLeft].BrakeTorque)
	assert.Equal(t, 1.0, out.Wheels[core.WheelRearRight].SidewaysStiffness)
}

func TestHoldTorqueOnHandbrake(t *testing.T) {
	a := New(AIConfig())
	a.Apply(core.Signals{Throttle: 0.6}, 1, state(mgl64.Vec3{}, 0))

	out := a.Apply(core.Signals{Throttle: -1, Handbrake: true}, 1, state(mgl64.Vec3{0, 0, 8}, 0))
	assert.Equal(t, 30.0, out.Wheels[core.WheelFrontLeft].MotorTorque)
	assert.Equal(t, 30.0, out.Wheels[core.WheelFrontRight].MotorTorque)

	p := New(PlayerConfig())
	p.Apply(core.Signals{Throttle: 0.6}, 1, state(mgl64.Vec3{}, 0))
	out = p.Apply(core.Signals{Throttle: -1, Handbrake: true}, 1, state(mgl64.Vec3{0, 0, 8}, 0))
	assert.Equal(t, -10.0, out.Wheels[core.WheelRearLeft].MotorTorque, "player car keeps writing torque")
}

func TestThrottleScale(t *testing.T) {
	a := New(AIConfig())
	out := a.Apply(core.Signals{Throttle: 1}, -0.5, state(mgl64.Vec3{}, 0))
	assert.Equal(t, -25.0, out.Wheels[core.WheelFrontLeft].MotorTorque)
}

func TestDownforce(t *testing.T) {
	a := New(PlayerConfig())
	out := a.Apply(core.Signals{}, 1, state(mgl64.Vec3{0, 0, 20}, 0))
	assert.InDelta(t, -2, out.Downforce.Y(), 1e-12)

	out = a.Apply(core.Signals{}, 1, state(mgl64.Vec3{0, 0, -20}, 0))
	assert.InDelta(t, 2, out.Downforce.Y(), 1e-12)

	ai := New(AIConfig())
	out = ai.Apply(core.Signals{}, 1, state(mgl64.Vec3{0, 0, 20}, 0))
	assert.Equal(t, mgl64.Vec3{}, out.Downforce)
}

func TestReset(t *testing.T) {
	a := New(AIConfig())
	a.Apply(core.Signals{Throttle: 1, Steer: 1}, 1, state(mgl64.Vec3{}, 0))
	a.Reset()
	assert.Equal(t, New(AIConfig()).Last(), a.Last())
}
