package geo

import (
	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
)

// LoopLineString returns the closed ground-plane ring through points.
// Fewer than two points give an empty line string.
func LoopLineString(points []mgl64.Vec3) geom.LineString {
	if len(points) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, (len(points)+1)*3)
	for _, p := range points {
		flat = append(flat, p.X(), p.Z(), p.Y())
	}
	first := points[0]
	flat = append(flat, first.X(), first.Z(), first.Y())
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// LoopLength is the ground distance around the closed loop.
func LoopLength(points []mgl64.Vec3) float64 {
	if len(points) < 2 {
		return 0
	}
	return LoopLineString(points).Length()
}

// LoopWKT returns the loop as WKT, for storage.
func LoopWKT(points []mgl64.Vec3) string {
	return LoopLineString(points).AsText()
}
