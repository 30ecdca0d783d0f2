package trailmetrics

import (
	"fmt"
	"math"
)

const (
	// slopeChunkM is the distance window for slope sampling. Finer windows
	// let GPS jitter dominate, coarser ones hide short steep sections.
	slopeChunkM = 50.0

	// loopThresholdM is the max start/end separation for a loop.
	loopThresholdM = 200.0

	// climbBreakM is the descent that terminates a climb when measuring
	// the longest continuous ascent.
	climbBreakM = 20.0

	metersGainPerKmEquivalent = 100.0
)

// TrackMetrics contains the physical metrics computed from one track.
// It is a pure value: identical input sequences produce identical metrics.
type TrackMetrics struct {
	DistanceKm        float64        `json:"distance_km"`
	ElevationGainM    float64        `json:"elevation_gain_m"`
	ElevationLossM    float64        `json:"elevation_loss_m"`
	MaxAltitudeM      float64        `json:"max_altitude_m"`
	MinAltitudeM      float64        `json:"min_altitude_m"`
	AvgAltitudeM      float64        `json:"avg_altitude_m"`
	MaxSlopePct       float64        `json:"max_slope_pct"`
	AvgUphillSlopePct float64        `json:"avg_uphill_slope_pct"`
	LongestClimbM     float64        `json:"longest_climb_m"`
	EffortScore       float64        `json:"effort_score"`
	IBPIndex          int            `json:"ibp_index"`
	ITRAPoints        int            `json:"estimated_itra_points"`
	RouteType         RouteType      `json:"route_type"`
	EstimatedTimes    EstimatedTimes `json:"estimated_times"`
	StartPoint        LatLon         `json:"start_point"`
	EndPoint          LatLon         `json:"end_point"`
}

// EstimatedTimes holds formatted completion estimates per speed profile.
type EstimatedTimes struct {
	Hiker  string `json:"hiker"`
	Runner string `json:"runner"`
	Elite  string `json:"elite"`
}

type speedProfile struct {
	flatKmh    float64
	climbMPerH float64
}

var (
	hikerProfile  = speedProfile{flatKmh: 4, climbMPerH: 300}
	runnerProfile = speedProfile{flatKmh: 8, climbMPerH: 600}
	eliteProfile  = speedProfile{flatKmh: 12, climbMPerH: 1200}
)

// itraThresholds maps km-effort to the 0-6 ITRA points scale.
var itraThresholds = []float64{25, 40, 65, 90, 140, 190}

// ComputeMetrics computes TrackMetrics from a point sequence. Elevation is
// summed raw, without smoothing: every positive delta counts toward gain and
// every negative delta toward loss, so results differ from sources that
// filter barometric noise first. Degenerate input (fewer than 2 points)
// yields a zeroed result rather than an error.
func ComputeMetrics(points []GeoPoint) TrackMetrics {
	if len(points) < 2 {
		return TrackMetrics{}
	}

	var (
		distanceM float64
		gainM     float64
		lossM     float64
	)
	for i := 1; i < len(points); i++ {
		distanceM += points[i-1].DistanceTo(points[i])
		prev, cur := points[i-1].Elevation, points[i].Elevation
		if prev == nil || cur == nil {
			continue
		}
		diff := *cur - *prev
		if diff > 0 {
			gainM += diff
		} else {
			lossM += -diff
		}
	}
	distanceKm := round2(distanceM / 1000)

	m := TrackMetrics{
		DistanceKm:     distanceKm,
		ElevationGainM: math.Round(gainM),
		ElevationLossM: math.Round(lossM),
		StartPoint:     LatLon{Lat: points[0].Lat, Lon: points[0].Lon},
		EndPoint:       LatLon{Lat: points[len(points)-1].Lat, Lon: points[len(points)-1].Lon},
	}

	m.MaxAltitudeM, m.MinAltitudeM, m.AvgAltitudeM = altitudeStats(points)
	m.MaxSlopePct, m.AvgUphillSlopePct = slopeStats(points)
	m.LongestClimbM = longestClimb(points)

	effort := distanceKm + m.ElevationGainM/metersGainPerKmEquivalent
	m.EffortScore = round1(effort)
	m.IBPIndex = ibpIndex(m.EffortScore, m.AvgUphillSlopePct)
	m.ITRAPoints = itraPoints(m.EffortScore)

	m.EstimatedTimes = EstimatedTimes{
		Hiker:  FormatHours(profileHours(hikerProfile, distanceKm, m.ElevationGainM)),
		Runner: FormatHours(profileHours(runnerProfile, distanceKm, m.ElevationGainM)),
		Elite:  FormatHours(profileHours(eliteProfile, distanceKm, m.ElevationGainM)),
	}

	m.RouteType = RoutePointToPoint
	if points[0].DistanceTo(points[len(points)-1]) < loopThresholdM {
		m.RouteType = RouteLoop
	}
	return m
}

func altitudeStats(points []GeoPoint) (maxAlt, minAlt, avgAlt float64) {
	sum := 0.0
	count := 0
	for _, p := range points {
		if p.Elevation == nil || !isFinite(*p.Elevation) {
			continue
		}
		e := *p.Elevation
		if count == 0 {
			maxAlt, minAlt = e, e
		}
		if e > maxAlt {
			maxAlt = e
		}
		if e < minAlt {
			minAlt = e
		}
		sum += e
		count++
	}
	if count == 0 {
		return 0, 0, 0
	}
	return math.Round(maxAlt), math.Round(minAlt), math.Round(sum / float64(count))
}

// slopeStats folds over consecutive pairs, accumulating distance until at
// least slopeChunkM has elapsed, then closes one slope sample for the chunk.
func slopeStats(points []GeoPoint) (maxSlopePct, avgUphillPct float64) {
	var (
		accumulatedM float64
		anchor       = points[0]
		uphillSum    float64
		uphillCount  int
	)
	for _, p := range points[1:] {
		accumulatedM += anchor.DistanceTo(p)
		if accumulatedM < slopeChunkM {
			continue
		}

		eleDiff := 0.0
		if anchor.Elevation != nil && p.Elevation != nil {
			eleDiff = *p.Elevation - *anchor.Elevation
		}
		slopePct := eleDiff / accumulatedM * 100
		if abs := math.Abs(slopePct); abs > maxSlopePct {
			maxSlopePct = abs
		}
		if slopePct > 0 {
			uphillSum += slopePct
			uphillCount++
		}

		anchor = p
		accumulatedM = 0
	}
	if uphillCount > 0 {
		avgUphillPct = uphillSum / float64(uphillCount)
	}
	return round1(maxSlopePct), round1(avgUphillPct)
}

// longestClimb measures the largest continuous elevation gain, tolerating
// dips up to climbBreakM before a climb is considered finished.
func longestClimb(points []GeoPoint) float64 {
	var (
		longest    float64
		current    float64
		lossBuffer float64
		haveLast   bool
		lastEle    float64
	)
	for _, p := range points {
		if p.Elevation == nil {
			continue
		}
		ele := *p.Elevation
		if !haveLast {
			lastEle = ele
			haveLast = true
			continue
		}

		diff := ele - lastEle
		switch {
		case diff > 0:
			current += diff
			lossBuffer = 0
		case diff < 0:
			lossBuffer += -diff
			if lossBuffer > climbBreakM {
				if current > longest {
					longest = current
				}
				current = 0
				lossBuffer = 0
			}
		}
		lastEle = ele
	}
	if current > longest {
		longest = current
	}
	return math.Round(longest)
}

func ibpIndex(effortScore, avgUphillPct float64) int {
	score := effortScore
	if avgUphillPct > 10 {
		score *= 1.1
	}
	return int(score)
}

func itraPoints(effortScore float64) int {
	points := 0
	for _, threshold := range itraThresholds {
		if effortScore >= threshold {
			points++
		}
	}
	return points
}

func profileHours(profile speedProfile, distanceKm, gainM float64) float64 {
	return distanceKm/profile.flatKmh + gainM/profile.climbMPerH
}

// FormatHours renders fractional hours as "4h30".
func FormatHours(hours float64) string {
	if hours <= 0 {
		return "0h00"
	}
	h := int(hours)
	m := int((hours - float64(h)) * 60)
	return fmt.Sprintf("%dh%02d", h, m)
}
