package trailmetrics

import "math"

// DefaultSimplifyTolerance is roughly 10 m expressed in coordinate degrees.
const DefaultSimplifyTolerance = 0.0001

// Simplify reduces point density with Douglas-Peucker polyline
// simplification. The tolerance is expressed in coordinate degrees; values
// <= 0 fall back to DefaultSimplifyTolerance. The output is always a subset
// of the input with both endpoints retained.
//
// Simplification is lossy and intended for storage and rendering only; do
// not feed a simplified track back into ComputeMetrics expecting the
// original numbers.
func Simplify(points []GeoPoint, tolerance float64) []GeoPoint {
	if len(points) <= 2 {
		out := make([]GeoPoint, len(points))
		copy(out, points)
		return out
	}
	if tolerance <= 0 {
		tolerance = DefaultSimplifyTolerance
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true

	type span struct{ first, last int }
	stack := []span{{first: 0, last: len(points) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.last-s.first < 2 {
			continue
		}

		maxDist := 0.0
		maxIdx := -1
		for i := s.first + 1; i < s.last; i++ {
			d := perpendicularDistanceDeg(points[i], points[s.first], points[s.last])
			if d > maxDist {
				maxDist = d
				maxIdx = i
			}
		}
		if maxIdx < 0 || maxDist <= tolerance {
			continue
		}
		keep[maxIdx] = true
		stack = append(stack, span{first: s.first, last: maxIdx}, span{first: maxIdx, last: s.last})
	}

	out := make([]GeoPoint, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// perpendicularDistanceDeg measures point-to-segment distance in planar
// degree space, which is adequate at simplification tolerances.
func perpendicularDistanceDeg(p, a, b GeoPoint) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		ddx := p.Lon - a.Lon
		ddy := p.Lat - a.Lat
		return math.Sqrt(ddx*ddx + ddy*ddy)
	}

	t := ((p.Lon-a.Lon)*dx + (p.Lat-a.Lat)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	projLon := a.Lon + t*dx
	projLat := a.Lat + t*dy
	ddx := p.Lon - projLon
	ddy := p.Lat - projLat
	return math.Sqrt(ddx*ddx + ddy*ddy)
}
