package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/internal/agent"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// slideYawGain is how much extra yaw rate a car with zero rear side grip
// gets over the pure bicycle model.
const slideYawGain = 0.6

// car is a kinematic bicycle: forward speed along the heading, yaw rate from
// the front steer angle. It stands in for the host's rigid body.
type car struct {
	id   uint16
	body Body
	ctrl *agent.Controller

	position mgl64.Vec3
	yaw      float64 // degrees
	speed    float64 // signed forward speed, m/s

	inputs []InputAt
	next   int
}

func (c *car) pose() core.Pose {
	return core.NewPose(c.position, core.YawRotation(c.yaw))
}

// state reports the car the way the host would: world velocity plus the
// reference wheel's rpm.
func (c *car) state() core.VehicleState {
	p := c.pose()
	return core.VehicleState{
		Pose:        p,
		Velocity:    p.Forward().Mul(c.speed),
		WheelRPM:    c.speed / (2 * math.Pi * c.body.WheelRadius) * 60,
		WheelRadius: c.body.WheelRadius,
	}
}

// input returns the manual input in effect at time now.
func (c *car) input(now float64) (core.ManualInput, bool) {
	changed := false
	for c.next < len(c.inputs) && c.inputs[c.next].Time <= now {
		c.next++
		changed = true
	}
	if !changed {
		return core.ManualInput{}, false
	}
	in := c.inputs[c.next-1]
	return core.ManualInput{Horizontal: in.Horizontal, Vertical: in.Vertical, Handbrake: in.Handbrake}, true
}

// integrate advances the car by dt under the given wheel commands.
func (c *car) integrate(act core.Actuation, dt float64) {
	b := c.body

	var drive, brake, steer, rearGrip, rearRoll float64
	for i, w := range act.Wheels {
		drive += w.MotorTorque
		brake += w.BrakeTorque
		if core.IsFront(i) {
			steer += w.SteerAngle / 2
		} else {
			rearGrip += w.SidewaysStiffness / 2
			rearRoll += w.ForwardStiffness / 2
		}
	}

	accel := drive / b.WheelRadius / b.Mass
	// locked-up rear wheels lose their forward grip, so drive fades too
	accel *= core.Clamp(rearRoll, 0, 1)
	accel -= b.RollingDrag * c.speed
	c.speed += accel * dt

	if brake > 0 && c.speed != 0 {
		dv := brake / b.WheelRadius / b.Mass * dt
		if dv >= math.Abs(c.speed) {
			c.speed = 0
		} else {
			c.speed -= math.Copysign(dv, c.speed)
		}
	}

	yawRate := c.speed / b.Wheelbase * math.Tan(mgl64.DegToRad(steer))
	yawRate *= 1 + slideYawGain*(1-core.Clamp(rearGrip, 0, 1))
	c.yaw = core.NormalizeDegrees(c.yaw + mgl64.RadToDeg(yawRate*dt))

	fwd := core.YawRotation(c.yaw).Rotate(core.Forward)
	c.position = c.position.Add(fwd.Mul(c.speed * dt))
}
