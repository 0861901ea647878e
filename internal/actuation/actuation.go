// Package actuation maps driver signals onto the four wheel contact models.
package actuation

import (
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// Drive selects which axle receives motor torque.
type Drive int

const (
	FrontWheelDrive Drive = iota
	RearWheelDrive
)

func (d Drive) driven(wheel int) bool {
	if d == FrontWheelDrive {
		return core.IsFront(wheel)
	}
	return !core.IsFront(wheel)
}

// Config describes a car's drivetrain and brakes.
type Config struct {
	MaxSteerAngle float64 `json:"maxSteerAngle" mapstructure:"maxSteerAngle"` // degrees
	MaxTorque     float64 `json:"maxTorque" mapstructure:"maxTorque"`

	// HandbrakeTorque is applied to both front wheels while the handbrake is on.
	HandbrakeTorque       float64 `json:"handbrakeTorque" mapstructure:"handbrakeTorque"`
	HandbrakeForwardSlip  float64 `json:"handbrakeForwardSlip" mapstructure:"handbrakeForwardSlip"`
	HandbrakeSidewaysSlip float64 `json:"handbrakeSidewaysSlip" mapstructure:"handbrakeSidewaysSlip"`
	// SlideMinSpeed is the body speed below which a handbraked car skids to a
	// stop on regular grip instead of sliding.
	SlideMinSpeed float64 `json:"slideMinSpeed" mapstructure:"slideMinSpeed"`

	Drive Drive `json:"drive" mapstructure:"-"`

	// Governor cuts torque outside (MaxReverseSpeed, TopSpeed), in km/h of
	// wheel speed.
	Governor        bool    `json:"governor" mapstructure:"governor"`
	TopSpeed        float64 `json:"topSpeed" mapstructure:"topSpeed"`
	MaxReverseSpeed float64 `json:"maxReverseSpeed" mapstructure:"maxReverseSpeed"`

	SpoilerRatio float64 `json:"spoilerRatio" mapstructure:"spoilerRatio"`

	// HoldTorqueOnHandbrake leaves motor torque at its last value while the
	// handbrake is on.
	HoldTorqueOnHandbrake bool `json:"holdTorqueOnHandbrake" mapstructure:"holdTorqueOnHandbrake"`
}

// PlayerConfig is the rear-driven waypoint car with a speed governor and
// spoiler.
func PlayerConfig() Config {
	return Config{
		MaxSteerAngle:         10,
		MaxTorque:             10,
		HandbrakeTorque:       100,
		HandbrakeForwardSlip:  0.04,
		HandbrakeSidewaysSlip: 0.08,
		Drive:                 RearWheelDrive,
		Governor:              true,
		TopSpeed:              150,
		MaxReverseSpeed:       -50,
		SpoilerRatio:          0.1,
	}
}

// AIConfig is the front-driven opponent car.
func AIConfig() Config {
	return Config{
		MaxSteerAngle:         30,
		MaxTorque:             50,
		HandbrakeTorque:       100,
		HandbrakeForwardSlip:  0.04,
		HandbrakeSidewaysSlip: 0.08,
		SlideMinSpeed:         1,
		Drive:                 FrontWheelDrive,
		HoldTorqueOnHandbrake: true,
	}
}

// ManualConfig is the hand-driven car. It shares the opponent's drivetrain.
func ManualConfig() Config {
	return AIConfig()
}
