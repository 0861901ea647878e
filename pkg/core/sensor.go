package core

import "github.com/go-gl/mathgl/mgl64"

// Ray is a forward obstacle query.
type Ray struct {
	Origin      mgl64.Vec3 `json:"origin"`
	Direction   mgl64.Vec3 `json:"direction"`
	MaxDistance float64    `json:"maxDistance"`
}

// At returns the point at distance d along the ray.
func (r Ray) At(d float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(d))
}

// ObstacleSensor answers forward ray queries. A miss is a normal result, not
// an error.
type ObstacleSensor interface {
	Raycast(ray Ray) (distance float64, hit bool)
}

// NoObstacles is a sensor that never reports a hit.
type NoObstacles struct{}

// Raycast always misses.
func (NoObstacles) Raycast(Ray) (float64, bool) { return 0, false }

// FixedHit replays an obstacle distance measured by the host.
type FixedHit struct {
	Distance float64
	Hit      bool
}

// Raycast returns the stored result, clipped to the ray length.
func (f FixedHit) Raycast(ray Ray) (float64, bool) {
	if !f.Hit || f.Distance < 0 || f.Distance > ray.MaxDistance {
		return 0, false
	}
	return f.Distance, true
}

// CameraTransform is the chase camera output for one render frame.
type CameraTransform struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Quat `json:"rotation"`
}
