package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

func TestLerp(t *testing.T) {
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
	assert.Equal(t, 10.0, Lerp(0, 10, 3), "t above 1 clamps")
	assert.Equal(t, 0.0, Lerp(0, 10, -1), "t below 0 clamps")
}

func TestLerpAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, t float64
		want    float64
	}{
		{name: "plain", a: 10, b: 30, t: 0.5, want: 20},
		{name: "across zero", a: 350, b: 10, t: 0.5, want: 360},
		{name: "backwards across zero", a: 10, b: 350, t: 0.5, want: 0},
		{name: "shorter arc", a: 0, b: 270, t: 1, want: -90},
		{name: "clamped", a: 0, b: 90, t: 5, want: 90},
		{name: "wrapped target", a: 0, b: 720 + 45, t: 1, want: 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LerpAngle(tt.a, tt.b, tt.t), 1e-9)
		})
	}
}

func vehicle(yaw float64, localVel mgl64.Vec3) core.VehicleState {
	pose := core.NewPose(mgl64.Vec3{0, 1, 0}, core.YawRotation(yaw))
	return core.VehicleState{Pose: pose, Velocity: pose.TransformDirection(localVel)}
}

func TestFixedUpdateDesiredYaw(t *testing.T) {
	c := New(DefaultConfig(6, 2), core.CameraTransform{Rotation: mgl64.QuatIdent()})

	c.FixedUpdate(vehicle(90, mgl64.Vec3{0, 0, 5}))
	assert.InDelta(t, 90, c.DesiredYaw(), 1e-9)

	c.FixedUpdate(vehicle(90, mgl64.Vec3{0, 0, -0.4}))
	assert.InDelta(t, 90, c.DesiredYaw(), 1e-9, "slow creep backwards is ignored")

	c.FixedUpdate(vehicle(90, mgl64.Vec3{0, 0, -3}))
	assert.InDelta(t, 270, c.DesiredYaw(), 1e-9)
}

func TestLateUpdateConverges(t *testing.T) {
	c := New(DefaultConfig(6, 2), core.CameraTransform{Position: mgl64.Vec3{0, 10, -6}, Rotation: mgl64.QuatIdent()})
	target := vehicle(90, mgl64.Vec3{0, 0, 5})
	c.FixedUpdate(target)

	var tr core.CameraTransform
	for range 600 {
		tr = c.LateUpdate(target.Pose, 1.0/60)
	}

	assert.InDelta(t, 90, c.Yaw(), 1e-3)
	// six units behind a car facing +X, at car height plus two
	assert.InDelta(t, -6, tr.Position.X(), 1e-3)
	assert.InDelta(t, 3, tr.Position.Y(), 1e-3)
	assert.InDelta(t, 0, tr.Position.Z(), 1e-3)
	assert.Equal(t, tr.Position, c.Position())

	fwd := tr.Rotation.Rotate(core.Forward)
	toCar := target.Position.Sub(tr.Position).Normalize()
	assert.InDelta(t, 1, fwd.Dot(toCar), 1e-9, "camera looks at the car")
}

func TestLateUpdateSingleFrame(t *testing.T) {
	c := New(DefaultConfig(4, 1), core.CameraTransform{Position: mgl64.Vec3{0, 0, 0}, Rotation: mgl64.QuatIdent()})
	target := vehicle(60, mgl64.Vec3{})
	c.FixedUpdate(target)

	c.LateUpdate(target.Pose, 0.1)
	// damping * dt = 0.3 of the way to 60 degrees, 0.2 of the way to height 2
	assert.InDelta(t, 18, c.Yaw(), 1e-9)
	assert.InDelta(t, 0.4, c.Position().Y(), 1e-9)
}

func TestLateUpdateYawStaysWrapped(t *testing.T) {
	c := New(DefaultConfig(4, 1), core.CameraTransform{Rotation: mgl64.QuatIdent()})
	forward := vehicle(90, mgl64.Vec3{0, 0, 5})
	reversing := vehicle(90, mgl64.Vec3{0, 0, -5})

	for i := range 10 {
		target := forward
		if i%2 == 1 {
			target = reversing
		}
		c.FixedUpdate(target)
		// a long frame clamps the blend to 1
		c.LateUpdate(target.Pose, 10)

		assert.GreaterOrEqual(t, c.Yaw(), 0.0)
		assert.Less(t, c.Yaw(), 360.0)
		assert.InDelta(t, c.DesiredYaw(), c.Yaw(), 1e-9)
	}
}

func TestExponentialFactor(t *testing.T) {
	cfg := DefaultConfig(4, 1)
	cfg.Exponential = true
	c := New(cfg, core.CameraTransform{Rotation: mgl64.QuatIdent()})

	assert.Less(t, c.factor(3, 0.1), 0.3)
	assert.Greater(t, c.factor(3, 0.1), 0.25)
	assert.Less(t, c.factor(3, 10), 1.0+1e-12, "never overshoots")
}
