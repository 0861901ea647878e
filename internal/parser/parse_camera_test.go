package parser

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCamera(t *testing.T) {
	p := newTestParser()

	c, err := p.ParseCamera([]string{"main", "8", "3"})
	require.NoError(t, err)
	assert.Equal(t, CameraArgs{ID: "main", Distance: 8, Height: 3}, c)

	c, err = p.ParseCamera([]string{"main", ""})
	require.NoError(t, err)
	assert.Zero(t, c.Distance)
	assert.Zero(t, c.Height)

	_, err = p.ParseCamera([]string{`""`})
	assert.Error(t, err)
}

func TestParseCameraStep(t *testing.T) {
	p := newTestParser()

	s, err := p.ParseCameraStep([]string{"main", "0,0,0,1", "0,0,-2"})
	require.NoError(t, err)
	assert.Equal(t, "main", s.ID)
	assert.Equal(t, mgl64.Vec3{0, 0, -2}, s.Target.Velocity)
	assert.InDelta(t, 0, s.Target.Yaw(), 1e-9)

	_, err = p.ParseCameraStep([]string{"main", "0,0,0,1"})
	assert.ErrorIs(t, err, ErrMissingArgs)

	_, err = p.ParseCameraStep([]string{"main", "inf,0,0,1", "0,0,0"})
	assert.ErrorIs(t, err, ErrInvalidVector)

	_, err = p.ParseCameraStep([]string{"main", "0,0,0,1", "0,Inf,0"})
	assert.ErrorIs(t, err, ErrInvalidVector)
}

func TestParseCameraFrame(t *testing.T) {
	p := newTestParser()

	f, err := p.ParseCameraFrame([]string{"main", "1,2,3", "0.016"})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, f.Target.Position)
	assert.Equal(t, 0.016, f.DT)

	_, err = p.ParseCameraFrame([]string{"main", "1,2,3", "-1"})
	assert.Error(t, err)
}
