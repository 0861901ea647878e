package track

import "github.com/go-gl/mathgl/mgl64"

// Cursor tracks which waypoint a vehicle is heading for. The zero value
// points at the first waypoint.
type Cursor struct {
	index int
	laps  int
}

// Index returns the current target index.
func (c *Cursor) Index() int { return c.index }

// Laps returns how many times the cursor wrapped past the last waypoint.
func (c *Cursor) Laps() int { return c.laps }

// Current returns the target waypoint.
func (c *Cursor) Current(t *Track) mgl64.Vec3 {
	return t.At(c.index)
}

// Previous returns the waypoint before the target; at index 0 that is the
// last waypoint.
func (c *Cursor) Previous(t *Track) mgl64.Vec3 {
	return t.At(c.index - 1)
}

// AdvanceIfReached moves to the next waypoint when the vehicle-local offset
// to the target is shorter than threshold. It reports whether it advanced.
func (c *Cursor) AdvanceIfReached(t *Track, offset mgl64.Vec3, threshold float64) bool {
	if offset.Len() >= threshold {
		return false
	}
	c.index++
	if c.index >= t.Len() {
		c.index = 0
		c.laps++
	}
	return true
}

// Reset returns the cursor to the first waypoint.
func (c *Cursor) Reset() {
	c.index = 0
	c.laps = 0
}
