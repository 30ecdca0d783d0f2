package trackio

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
)

type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
	Routes  []gpxRoute `xml:"rte"`
}

type gpxTrack struct {
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxRoute struct {
	Points []gpxPoint `xml:"rtept"`
}

type gpxPoint struct {
	Lat       float64   `xml:"lat,attr"`
	Lon       float64   `xml:"lon,attr"`
	Elevation *float64  `xml:"ele,omitempty"`
	Time      time.Time `xml:"time,omitempty"`
}

// PointsFromGPX parses a GPX stream into a point sequence. Track points are
// preferred; route points (planner output) are the fallback when the file
// carries no tracks.
func PointsFromGPX(r io.Reader) ([]trailmetrics.GeoPoint, error) {
	var doc gpxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse GPX: %w", err)
	}

	var raw []gpxPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			raw = append(raw, seg.Points...)
		}
	}
	if len(raw) == 0 {
		for _, rte := range doc.Routes {
			raw = append(raw, rte.Points...)
		}
	}

	points := make([]trailmetrics.GeoPoint, 0, len(raw))
	for _, p := range raw {
		gp := trailmetrics.GeoPoint{Lat: p.Lat, Lon: p.Lon, Time: p.Time}
		if p.Elevation != nil && isFinite(*p.Elevation) {
			gp.Elevation = p.Elevation
		}
		points = append(points, gp)
	}
	return points, nil
}
