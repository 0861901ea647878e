package core

// Signals are the normalized driver inputs produced once per physics step.
type Signals struct {
	Steer     float64 `json:"steer"`    // [-1, 1], positive steers right
	Throttle  float64 `json:"throttle"` // [-1, 1], negative drives backwards
	Handbrake bool    `json:"handbrake"`
}

// Clamp limits steer and throttle to [-1, 1].
func (s Signals) Clamp() Signals {
	s.Steer = Clamp(s.Steer, -1, 1)
	s.Throttle = Clamp(s.Throttle, -1, 1)
	return s
}

// ManualInput carries the host's raw input axes for a player-driven car.
type ManualInput struct {
	Horizontal float64
	Vertical   float64
	Handbrake  float64
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
