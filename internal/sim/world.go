package sim

import (
	"math"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

// raySphere returns the distance along ray to the first surface point of s.
// A ray starting inside the sphere hits at 0.
func raySphere(ray core.Ray, s Sphere) (float64, bool) {
	oc := ray.Origin.Sub(s.Center)
	c := oc.Dot(oc) - s.Radius*s.Radius
	if c <= 0 {
		return 0, true
	}
	b := oc.Dot(ray.Direction)
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}

// world answers ray queries against static spheres and every car except the
// one asking.
type world struct {
	static []Sphere
	cars   []*car
}

type sensor struct {
	w    *world
	self *car
}

func (s sensor) Raycast(ray core.Ray) (float64, bool) {
	if ray.Direction.Len() == 0 {
		return 0, false
	}
	ray.Direction = ray.Direction.Normalize()

	best, found := math.Inf(1), false
	try := func(sp Sphere) {
		if d, hit := raySphere(ray, sp); hit && d <= ray.MaxDistance && d < best {
			best, found = d, true
		}
	}
	for _, sp := range s.w.static {
		try(sp)
	}
	for _, c := range s.w.cars {
		if c != s.self {
			try(Sphere{Center: c.position, Radius: c.body.Radius})
		}
	}
	if !found {
		return 0, false
	}
	return best, true
}

var _ core.ObstacleSensor = sensor{}
