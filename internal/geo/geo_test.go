package geo

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3FromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    mgl64.Vec3
		wantErr bool
	}{
		{name: "xyz", input: "100.5,2,-50", want: mgl64.Vec3{100.5, 2, -50}},
		{name: "xy only", input: "1,2", want: mgl64.Vec3{1, 2, 0}},
		{name: "bracketed", input: "[1, 2, 3]", want: mgl64.Vec3{1, 2, 3}},
		{name: "quoted", input: `"4,5,6"`, want: mgl64.Vec3{4, 5, 6}},
		{name: "too few", input: "1", wantErr: true},
		{name: "too many", input: "1,2,3,4", wantErr: true},
		{name: "not a number", input: "1,abc,3", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "nan", input: "1,NaN,3", wantErr: true},
		{name: "inf", input: "inf,0,0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Vec3FromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuatFromString(t *testing.T) {
	q, err := QuatFromString("0,0,0,2")
	require.NoError(t, err)
	assert.InDelta(t, 1, q.W, 1e-12, "normalized")

	_, err = QuatFromString("0,0,0,0")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = QuatFromString("0,0,1")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	for _, in := range []string{"inf,0,0,1", "0,-Inf,0,1", "0,0,0,+Inf", "NaN,0,0,1"} {
		_, err = QuatFromString(in)
		assert.ErrorIs(t, err, ErrInvalidCoordinates, in)
	}
}

func TestLoopLength(t *testing.T) {
	square := []mgl64.Vec3{{0, 0, 0}, {10, 0, 0}, {10, 0, 10}, {0, 0, 10}}
	assert.InDelta(t, 40, LoopLength(square), 1e-9)

	assert.InDelta(t, 20, LoopLength([]mgl64.Vec3{{0, 0, 0}, {0, 5, 10}}), 1e-9, "height is ignored")
	assert.Equal(t, 0.0, LoopLength([]mgl64.Vec3{{1, 2, 3}}))
	assert.Equal(t, 0.0, LoopLength(nil))
}

func TestLoopWKT(t *testing.T) {
	wkt := LoopWKT([]mgl64.Vec3{{0, 0, 0}, {10, 0, 0}})
	assert.True(t, strings.HasPrefix(wkt, "LINESTRING Z"), wkt)
}

func TestLonLatFromString(t *testing.T) {
	ll, err := LonLatFromString("7.4,43.7,12")
	require.NoError(t, err)
	assert.Equal(t, LonLat{Lon: 7.4, Lat: 43.7, Elev: 12}, ll)

	_, err = LonLatFromString("200,10")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestToLocal(t *testing.T) {
	pts := ToLocal([]LonLat{
		{Lon: 7.42, Lat: 43.73, Elev: 10},
		{Lon: 7.43, Lat: 43.73, Elev: 12},
		{Lon: 7.42, Lat: 43.74, Elev: 8},
	})
	require.Len(t, pts, 3)

	assert.Equal(t, mgl64.Vec3{0, 10, 0}, pts[0], "first point is the origin")
	assert.Greater(t, pts[1].X(), 0.0, "east is +X")
	assert.InDelta(t, 0, pts[1].Z(), 1e-6)
	assert.Equal(t, 12.0, pts[1].Y())
	assert.Greater(t, pts[2].Z(), 0.0, "north is +Z")

	assert.Nil(t, ToLocal(nil))
}
