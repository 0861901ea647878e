// Package geo parses host coordinates and measures track geometry.
//
// Host coordinates are Y-up. When handing them to simplefeatures the ground
// plane (X, Z) becomes XY and height becomes Z, so lengths are measured along
// the ground.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Vec3FromString parses "x,y,z" into a vector. A missing third component is
// read as zero.
func Vec3FromString(coords string) (mgl64.Vec3, error) {
	vals, err := parseFloats(coords, 2, 3)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	var v mgl64.Vec3
	copy(v[:], vals)
	return v, nil
}

// QuatFromString parses "x,y,z,w" into a quaternion.
func QuatFromString(coords string) (mgl64.Quat, error) {
	vals, err := parseFloats(coords, 4, 4)
	if err != nil {
		return mgl64.Quat{}, err
	}
	q := mgl64.Quat{W: vals[3], V: mgl64.Vec3{vals[0], vals[1], vals[2]}}
	if q.Len() == 0 {
		return mgl64.Quat{}, ErrInvalidCoordinates
	}
	return q.Normalize(), nil
}

func parseFloats(coords string, minN, maxN int) ([]float64, error) {
	coords = strings.Trim(strings.TrimSpace(coords), `"[]`)
	parts := strings.Split(coords, ",")
	if len(parts) < minN || len(parts) > maxN {
		return nil, ErrInvalidCoordinates
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrInvalidCoordinates
		}
		vals[i] = f
	}
	return vals, nil
}
