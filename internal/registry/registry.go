// Package registry keeps the tracks, vehicle controllers and chase cameras the
// host has created, keyed by the ids the host uses in later calls.
// Lookups sit on the physics-step path, so they never touch storage.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RacingGame/vehiclectl/internal/agent"
	"github.com/RacingGame/vehiclectl/internal/camera"
	"github.com/RacingGame/vehiclectl/internal/track"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

var (
	// ErrUnknownVehicle is returned for a vehicle id that was never registered.
	ErrUnknownVehicle = errors.New("unknown vehicle")
	// ErrUnknownCamera is returned for a camera id that was never registered.
	ErrUnknownCamera = errors.New("unknown camera")
	// ErrUnknownTrack is returned for a track name that was never loaded.
	ErrUnknownTrack = errors.New("unknown track")
)

// Vehicle is a registered car and its control state.
type Vehicle struct {
	Info       core.Vehicle
	Controller *agent.Controller
	// Steps counts physics steps since the car joined.
	Steps uint
}

// Registry holds everything the host refers to by id.
type Registry struct {
	mu       sync.Mutex
	tracks   map[string]*track.Track
	vehicles map[uint16]*Vehicle
	cameras  map[string]*camera.Camera
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		tracks:   make(map[string]*track.Track),
		vehicles: make(map[uint16]*Vehicle),
		cameras:  make(map[string]*camera.Camera),
	}
}

// Reset drops vehicles and cameras. Loaded tracks survive, since the host
// usually loads them once per level.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles = make(map[uint16]*Vehicle)
	r.cameras = make(map[string]*camera.Camera)
}

// AddTrack stores t under its name, replacing any previous track.
func (r *Registry) AddTrack(t *track.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[t.Name()] = t
}

// Track looks a track up by name.
func (r *Registry) Track(name string) (*track.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tracks[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownTrack)
}

// TrackNames returns the loaded track names in order.
func (r *Registry) TrackNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tracks))
	for n := range r.tracks {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// AddVehicle registers a car. Registering an id again replaces the car and
// restarts its step count.
func (r *Registry) AddVehicle(info core.Vehicle, c *agent.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[info.ID] = &Vehicle{Info: info, Controller: c}
}

// WithVehicle runs fn with the car locked. Controllers are not safe for
// concurrent use, so every access goes through here.
func (r *Registry) WithVehicle(id uint16, fn func(*Vehicle) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return fmt.Errorf("vehicle %d: %w", id, ErrUnknownVehicle)
	}
	return fn(v)
}

// VehicleIDs returns the registered ids in order.
func (r *Registry) VehicleIDs() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint16, 0, len(r.vehicles))
	for id := range r.vehicles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MaxSteps is the highest step count of any registered car.
func (r *Registry) MaxSteps() uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n uint
	for _, v := range r.vehicles {
		n = max(n, v.Info.JoinTick+v.Steps)
	}
	return n
}

// AddCamera registers a chase camera, replacing any camera with the same id.
func (r *Registry) AddCamera(id string, c *camera.Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cameras[id] = c
}

// WithCamera runs fn with the camera locked.
func (r *Registry) WithCamera(id string, fn func(*camera.Camera) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cameras[id]
	if !ok {
		return fmt.Errorf("camera %q: %w", id, ErrUnknownCamera)
	}
	return fn(c)
}

// Counts reports how many tracks, vehicles and cameras are registered.
func (r *Registry) Counts() (tracks, vehicles, cameras int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tracks), len(r.vehicles), len(r.cameras)
}
