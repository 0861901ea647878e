package parser

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

// ParseCamera parses [camId, distance, height]. Distance and height may be
// omitted or empty.
func (p *Parser) ParseCamera(data []string) (CameraArgs, error) {
	data, err := p.need(":CAMERA:NEW:", data, 1)
	if err != nil {
		return CameraArgs{}, err
	}
	out := CameraArgs{ID: data[0]}
	if out.ID == "" {
		return CameraArgs{}, fmt.Errorf("camera id is empty")
	}
	if len(data) > 1 && data[1] != "" {
		if out.Distance, err = parseFloat("distance", data[1]); err != nil {
			return CameraArgs{}, err
		}
	}
	if len(data) > 2 && data[2] != "" {
		if out.Height, err = parseFloat("height", data[2]); err != nil {
			return CameraArgs{}, err
		}
	}
	return out, nil
}

// ParseCameraStep parses [camId, rot, vel] describing the tracked body.
func (p *Parser) ParseCameraStep(data []string) (CameraStepArgs, error) {
	data, err := p.need(":CAMERA:STEP:", data, 3)
	if err != nil {
		return CameraStepArgs{}, err
	}
	rot, err := parseQuat("rotation", data[1])
	if err != nil {
		return CameraStepArgs{}, err
	}
	vel, err := parseVec3("velocity", data[2])
	if err != nil {
		return CameraStepArgs{}, err
	}
	return CameraStepArgs{
		ID: data[0],
		Target: core.VehicleState{
			Pose:     core.NewPose(mgl64.Vec3{}, rot),
			Velocity: vel,
		},
	}, nil
}

// ParseCameraFrame parses [camId, pos, dt].
func (p *Parser) ParseCameraFrame(data []string) (CameraFrameArgs, error) {
	data, err := p.need(":CAMERA:FRAME:", data, 3)
	if err != nil {
		return CameraFrameArgs{}, err
	}
	pos, err := parseVec3("position", data[1])
	if err != nil {
		return CameraFrameArgs{}, err
	}
	dt, err := parseFloat("dt", data[2])
	if err != nil {
		return CameraFrameArgs{}, err
	}
	if dt < 0 {
		return CameraFrameArgs{}, fmt.Errorf("dt must not be negative, got %v", dt)
	}
	return CameraFrameArgs{
		ID:     data[0],
		Target: core.NewPose(pos, mgl64.QuatIdent()),
		DT:     dt,
	}, nil
}
