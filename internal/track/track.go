// Package track holds the circular waypoint sequence a vehicle drives around.
//
// A Track is immutable once built. The index of the waypoint a vehicle is
// currently heading for lives in a Cursor owned by that vehicle, so many
// vehicles can share one Track.
package track

import (
	"errors"
	"fmt"

	"github.com/RacingGame/vehiclectl/internal/geo"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrEmptyTrack is returned when a track would have no waypoints.
var ErrEmptyTrack = errors.New("track has no waypoints")

// Track is an ordered, closed loop of waypoints.
type Track struct {
	name      string
	waypoints []mgl64.Vec3
	length    float64
}

// New builds a track from waypoints in driving order.
func New(name string, waypoints []mgl64.Vec3) (*Track, error) {
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("track %q: %w", name, ErrEmptyTrack)
	}
	copied := make([]mgl64.Vec3, len(waypoints))
	copy(copied, waypoints)
	return &Track{
		name:      name,
		waypoints: copied,
		length:    geo.LoopLength(copied),
	}, nil
}

// FromContainer builds a track from a waypoint container's transforms as the
// host lists them: the container itself first, then its children in order.
// The container's own entry is skipped.
func FromContainer(name string, transforms []mgl64.Vec3) (*Track, error) {
	if len(transforms) < 2 {
		return nil, fmt.Errorf("track %q: container has no children: %w", name, ErrEmptyTrack)
	}
	return New(name, transforms[1:])
}

// Name returns the track name.
func (t *Track) Name() string { return t.name }

// Len returns the number of waypoints.
func (t *Track) Len() int { return len(t.waypoints) }

// At returns waypoint i, wrapping around in both directions.
func (t *Track) At(i int) mgl64.Vec3 {
	return t.waypoints[wrap(i, len(t.waypoints))]
}

// Points returns a copy of the waypoints.
func (t *Track) Points() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(t.waypoints))
	copy(out, t.waypoints)
	return out
}

// Length is the distance around the closed loop.
func (t *Track) Length() float64 { return t.length }

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
