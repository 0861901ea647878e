package geo

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/wroge/wgs84"
)

// LonLat is a geographic coordinate in EPSG:4326 with elevation in metres.
type LonLat struct {
	Lon, Lat, Elev float64
}

// LonLatFromString parses "lon,lat" or "lon,lat,elev".
func LonLatFromString(coords string) (LonLat, error) {
	vals, err := parseFloats(coords, 2, 3)
	if err != nil {
		return LonLat{}, err
	}
	ll := LonLat{Lon: vals[0], Lat: vals[1]}
	if len(vals) == 3 {
		ll.Elev = vals[2]
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lon < -180 || ll.Lon > 180 {
		return LonLat{}, ErrInvalidCoordinates
	}
	return ll, nil
}

// ToLocal projects geographic points to EPSG:3857 and expresses them in the
// host frame relative to the first point: east is +X, north is +Z and
// elevation is +Y.
func ToLocal(points []LonLat) []mgl64.Vec3 {
	if len(points) == 0 {
		return nil
	}
	f := wgs84.EPSG().Transform(4326, 3857)
	originX, originY, _ := f(points[0].Lon, points[0].Lat, 0)

	out := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		x, y, _ := f(p.Lon, p.Lat, 0)
		out[i] = mgl64.Vec3{x - originX, p.Elev, y - originY}
	}
	return out
}
