package parser

import (
	"fmt"

	"github.com/RacingGame/vehiclectl/internal/geo"
)

// ParseTrack parses [name, "x,y,z"...].
func (p *Parser) ParseTrack(data []string) (TrackArgs, error) {
	data, err := p.need(":TRACK:", data, 2)
	if err != nil {
		return TrackArgs{}, err
	}
	out := TrackArgs{Name: data[0]}
	for i, s := range data[1:] {
		v, err := parseVec3(fmt.Sprintf("waypoint %d", i), s)
		if err != nil {
			return TrackArgs{}, err
		}
		out.Points = append(out.Points, v)
	}
	return out, nil
}

// ParseGeoTrack parses [name, "lon,lat,elev"...].
func (p *Parser) ParseGeoTrack(data []string) (GeoTrackArgs, error) {
	data, err := p.need(":TRACK:GEO:", data, 2)
	if err != nil {
		return GeoTrackArgs{}, err
	}
	out := GeoTrackArgs{Name: data[0]}
	for i, s := range data[1:] {
		ll, err := geo.LonLatFromString(s)
		if err != nil {
			return GeoTrackArgs{}, fmt.Errorf("waypoint %d %q: %w", i, s, ErrInvalidVector)
		}
		out.Points = append(out.Points, ll)
	}
	return out, nil
}

// ParseSession parses [name, trackName].
func (p *Parser) ParseSession(data []string) (SessionArgs, error) {
	data, err := p.need(":SESSION:START:", data, 1)
	if err != nil {
		return SessionArgs{}, err
	}
	out := SessionArgs{Name: data[0]}
	if len(data) > 1 {
		out.TrackName = data[1]
	}
	return out, nil
}
