package trailmetrics

import (
	"math"
	"time"
)

const earthRadiusM = 6371000.0

// GeoPoint is one GPS track sample. Elevation and Time are optional:
// a nil elevation contributes nothing to elevation deltas, a zero time
// means the source carried no timestamp.
type GeoPoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Elevation *float64  `json:"elevation_m,omitempty"`
	Time      time.Time `json:"time,omitempty"`
}

// DistanceTo returns the great-circle distance to q in meters.
func (p GeoPoint) DistanceTo(q GeoPoint) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := (q.Lat - p.Lat) * math.Pi / 180
	dLon := (q.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ElevationOrZero returns the sample elevation, or 0 when missing.
func (p GeoPoint) ElevationOrZero() float64 {
	if p.Elevation == nil {
		return 0
	}
	return *p.Elevation
}

// LatLon is a bare coordinate pair used for track endpoints.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteType classifies the overall track shape.
type RouteType string

const (
	RouteLoop         RouteType = "loop"
	RoutePointToPoint RouteType = "point_to_point"

	// RouteOutAndBack is declared for callers that tag tracks manually.
	// Classification only distinguishes loop from point-to-point based on
	// start/end proximity; see ComputeMetrics.
	RouteOutAndBack RouteType = "out_and_back"
)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
