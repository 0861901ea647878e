package agent

import (
	"fmt"
	"strings"

	"github.com/RacingGame/vehiclectl/internal/actuation"
	"github.com/RacingGame/vehiclectl/internal/policy"
)

// Profile names one of the stock car setups.
type Profile string

const (
	// ProfilePlayer is the waypoint-driven player car.
	ProfilePlayer Profile = "player"
	// ProfileAI is the opponent car.
	ProfileAI Profile = "ai"
	// ProfileManual is driven by host input axes.
	ProfileManual Profile = "manual"
)

// Profiles lists every known profile.
var Profiles = []Profile{ProfilePlayer, ProfileAI, ProfileManual}

// ParseProfile accepts a profile name in any case.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Profiles {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown profile %q", s)
}

// Config is everything a controller needs besides its track.
type Config struct {
	Policy    policy.Config    `json:"policy" mapstructure:"policy"`
	Actuation actuation.Config `json:"actuation" mapstructure:"actuation"`
	// ReachRadius is how close the car must get before targeting the next
	// waypoint.
	ReachRadius float64 `json:"reachRadius" mapstructure:"reachRadius"`
}

// DefaultConfig returns the stock setup for a profile.
func DefaultConfig(p Profile) Config {
	switch p {
	case ProfileAI:
		return Config{Policy: policy.AIConfig(), Actuation: actuation.AIConfig(), ReachRadius: 5}
	case ProfileManual:
		return Config{Policy: policy.ManualConfig(), Actuation: actuation.ManualConfig()}
	default:
		return Config{Policy: policy.PlayerConfig(), Actuation: actuation.PlayerConfig(), ReachRadius: 25}
	}
}
