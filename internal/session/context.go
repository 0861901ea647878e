package session

import (
	"log/slog"
	"sync"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

// Context holds the current race session and its track
type Context struct {
	mu      sync.RWMutex
	Session *core.Session
	Track   *core.Track
	active  bool
	tick    uint
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Session: &core.Session{SessionName: "No session loaded"},
		Track:   &core.Track{Name: "No track loaded"},
	}
}

// GetSession returns the current session
func (c *Context) GetSession() *core.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Session
}

// GetTrack returns the current track
func (c *Context) GetTrack() *core.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Track
}

// Start makes s the running session and rewinds the tick.
func (c *Context) Start(s *core.Session, t *core.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Session = s
	if t == nil {
		t = &core.Track{Name: s.TrackName}
	}
	c.Track = t
	c.active = true
	c.tick = 0
}

// End marks the session finished. The last session stays readable.
func (c *Context) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
}

// Active reports whether a session is running.
func (c *Context) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Tick is the highest step number seen in the running session.
func (c *Context) Tick() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick
}

// Observe raises the session tick to n.
func (c *Context) Observe(n uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = max(c.tick, n)
}

// LogAttrs are the attributes every log record carries.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.active {
		return nil
	}
	return []slog.Attr{
		slog.String("session", c.Session.SessionName),
		slog.String("track", c.Track.Name),
	}
}
