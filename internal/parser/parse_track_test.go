package parser

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RacingGame/vehiclectl/internal/geo"
)

func TestParseTrack(t *testing.T) {
	p := newTestParser()

	tr, err := p.ParseTrack([]string{`"oval"`, "0,0,0", "10,0,0", "[10,0,10]"})
	require.NoError(t, err)
	assert.Equal(t, "oval", tr.Name)
	assert.Equal(t, []mgl64.Vec3{{0, 0, 0}, {10, 0, 0}, {10, 0, 10}}, tr.Points)

	_, err = p.ParseTrack([]string{"oval"})
	assert.ErrorIs(t, err, ErrMissingArgs)

	_, err = p.ParseTrack([]string{"oval", "0,0,0", "one,two,three"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestParseGeoTrack(t *testing.T) {
	p := newTestParser()

	tr, err := p.ParseGeoTrack([]string{"nurburgring", "6.9475,50.3356,620", "6.9480,50.3360"})
	require.NoError(t, err)
	require.Len(t, tr.Points, 2)
	assert.Equal(t, 620.0, tr.Points[0].Elev)

	_, err = p.ParseGeoTrack([]string{"bad", "200,10"})
	assert.ErrorIs(t, err, ErrInvalidVector)
}

func TestParseSession(t *testing.T) {
	p := newTestParser()

	s, err := p.ParseSession([]string{`"Night Race"`, `"oval"`})
	require.NoError(t, err)
	assert.Equal(t, SessionArgs{Name: "Night Race", TrackName: "oval"}, s)

	s, err = p.ParseSession([]string{"practice"})
	require.NoError(t, err)
	assert.Empty(t, s.TrackName)

	_, err = p.ParseSession(nil)
	assert.ErrorIs(t, err, ErrMissingArgs)
}
