package parser

import (
	"github.com/RacingGame/vehiclectl/pkg/core"
)

// ParseVehicle parses [id, profile, trackName]. The track may be omitted for
// a manual car.
func (p *Parser) ParseVehicle(data []string) (VehicleArgs, error) {
	data, err := p.need(":VEHICLE:NEW:", data, 2)
	if err != nil {
		return VehicleArgs{}, err
	}
	id, err := parseID(data[0])
	if err != nil {
		return VehicleArgs{}, err
	}
	out := VehicleArgs{ID: id, Profile: data[1]}
	if len(data) > 2 {
		out.TrackName = data[2]
	}
	return out, nil
}

// ParseVehicleID parses calls that only carry the vehicle id.
func (p *Parser) ParseVehicleID(data []string) (uint16, error) {
	data, err := p.need("vehicle", data, 1)
	if err != nil {
		return 0, err
	}
	return parseID(data[0])
}

// ParseInput parses [id, horizontal, vertical, handbrake].
func (p *Parser) ParseInput(data []string) (InputArgs, error) {
	data, err := p.need(":VEHICLE:INPUT:", data, 4)
	if err != nil {
		return InputArgs{}, err
	}
	id, err := parseID(data[0])
	if err != nil {
		return InputArgs{}, err
	}
	var in core.ManualInput
	if in.Horizontal, err = parseFloat("horizontal", data[1]); err != nil {
		return InputArgs{}, err
	}
	if in.Vertical, err = parseFloat("vertical", data[2]); err != nil {
		return InputArgs{}, err
	}
	if in.Handbrake, err = parseFloat("handbrake", data[3]); err != nil {
		return InputArgs{}, err
	}
	return InputArgs{ID: id, Input: in}, nil
}

// ParseProbe parses [id, pos, rot].
func (p *Parser) ParseProbe(data []string) (ProbeArgs, error) {
	data, err := p.need(":VEHICLE:PROBE:", data, 3)
	if err != nil {
		return ProbeArgs{}, err
	}
	id, err := parseID(data[0])
	if err != nil {
		return ProbeArgs{}, err
	}
	pose, err := parsePose(data[1], data[2])
	if err != nil {
		return ProbeArgs{}, err
	}
	return ProbeArgs{ID: id, Pose: pose}, nil
}

// ParseStep parses [id, pos, rot, vel, rpm, radius, hit]. The hit distance
// is optional; empty or negative means no obstacle.
func (p *Parser) ParseStep(data []string) (StepArgs, error) {
	data, err := p.need(":VEHICLE:STEP:", data, 6)
	if err != nil {
		return StepArgs{}, err
	}
	id, err := parseID(data[0])
	if err != nil {
		return StepArgs{}, err
	}
	pose, err := parsePose(data[1], data[2])
	if err != nil {
		return StepArgs{}, err
	}
	state := core.VehicleState{Pose: pose}
	if state.Velocity, err = parseVec3("velocity", data[3]); err != nil {
		return StepArgs{}, err
	}
	if state.WheelRPM, err = parseFloat("rpm", data[4]); err != nil {
		return StepArgs{}, err
	}
	if state.WheelRadius, err = parseFloat("radius", data[5]); err != nil {
		return StepArgs{}, err
	}

	out := StepArgs{ID: id, State: state}
	if len(data) > 6 {
		if out.Hit.Distance, out.Hit.Hit, err = parseHit(data[6]); err != nil {
			return StepArgs{}, err
		}
	}
	return out, nil
}

func parsePose(pos, rot string) (core.Pose, error) {
	position, err := parseVec3("position", pos)
	if err != nil {
		return core.Pose{}, err
	}
	rotation, err := parseQuat("rotation", rot)
	if err != nil {
		return core.Pose{}, err
	}
	return core.NewPose(position, rotation), nil
}
