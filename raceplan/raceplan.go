// Package raceplan distributes a target race time across track segments
// proportionally to their terrain cost, producing a per-checkpoint schedule.
package raceplan

import (
	"errors"
	"fmt"
	"math"
	"sort"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
)

// ErrInsufficientData signals a pacing request on a track with no usable
// geometry. It is fatal to the call, not to the caller.
var ErrInsufficientData = errors.New("raceplan: track has no usable geometry")

const (
	// DefaultFatigueIntensity drifts segment cost by +20% from start to
	// finish, modeling accumulated fatigue.
	DefaultFatigueIntensity = 0.20

	// aggressiveIntensity and conservativeIntensity bound the fast/slow
	// companion schedules emitted alongside the main plan.
	aggressiveIntensity   = 0.25
	conservativeIntensity = 0.0

	// steepSlopePct marks steps where terrain slows movement beyond what
	// elevation normalization accounts for; such steps cost steepPenalty
	// times more.
	steepSlopePct = 20.0
	steepPenalty  = 1.2

	metersGainPerKmEquivalent = 100.0

	startSnapKm  = 0.1
	finishSnapKm = 0.5
)

// WaypointKind classifies a checkpoint.
type WaypointKind string

const (
	KindStart      WaypointKind = "start"
	KindFinish     WaypointKind = "finish"
	KindCheckpoint WaypointKind = "checkpoint"
	KindWater      WaypointKind = "water"
	KindFood       WaypointKind = "food"
	KindBaseCamp   WaypointKind = "base_camp"
)

// Waypoint is a named checkpoint at a distance along the track.
type Waypoint struct {
	KM   float64      `json:"km"`
	Name string       `json:"name"`
	Kind WaypointKind `json:"kind"`
}

// PlanPoint is one row of the pacing schedule, covering the segment that
// ends at this waypoint.
type PlanPoint struct {
	Name              string       `json:"name"`
	Kind              WaypointKind `json:"kind"`
	KM                float64      `json:"km"`
	AltitudeM         float64      `json:"altitude_m"`
	CumulativeGainM   float64      `json:"cumulative_gain_m"`
	ElapsedMinutes    float64      `json:"elapsed_minutes"`
	Elapsed           string       `json:"elapsed"`
	TimeOfDay         string       `json:"time_of_day"`
	TimeOfDayFast     string       `json:"time_of_day_fast"`
	TimeOfDaySlow     string       `json:"time_of_day_slow"`
	SegmentDistanceKm float64      `json:"segment_distance_km"`
	SegmentGainM      float64      `json:"segment_gain_m"`
	SegmentLossM      float64      `json:"segment_loss_m"`
	SegmentMinutes    float64      `json:"segment_minutes"`
	SegmentDuration   string       `json:"segment_duration"`
}

// PacingPlan is the full schedule for one target time.
type PacingPlan struct {
	TargetMinutes    float64     `json:"target_minutes"`
	FatigueIntensity float64     `json:"fatigue_intensity"`
	Points           []PlanPoint `json:"points"`
}

// segmentCost is the accumulated physical cost between two waypoints. It
// lives only for the duration of one Plan call.
type segmentCost struct {
	from        Waypoint
	to          Waypoint
	distKm      float64
	gainM       float64
	lossM       float64
	cost        float64
	endAltitude float64
}

// Plan distributes targetMinutes across the segments between waypoints.
// Segment cost is km-effort (distance plus gain/100) with a steep-step
// penalty, then weighted by a linear fatigue drift rising from 1.0 at the
// start to 1+fatigueIntensity at the finish. Durations are normalized so
// their sum is exactly targetMinutes.
//
// startHour is the race start as fractional hours of day; times of day wrap
// modulo 24h. Waypoints outside [0, total] are clamped; a Start at km 0 and
// a Finish at total distance are synthesized when missing.
func Plan(points []trailmetrics.GeoPoint, waypoints []Waypoint, targetMinutes, startHour, fatigueIntensity float64) (*PacingPlan, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientData
	}
	if targetMinutes <= 0 {
		return nil, fmt.Errorf("raceplan: target time must be positive, got %v minutes", targetMinutes)
	}
	if fatigueIntensity < 0 || !isFinite(fatigueIntensity) {
		fatigueIntensity = 0
	}

	totalKm := trackDistanceKm(points)
	if totalKm == 0 {
		return nil, ErrInsufficientData
	}

	active := normalizeWaypoints(waypoints, totalKm)
	segments := scanSegments(points, active)

	mainTimes := distributeTime(segments, targetMinutes, fatigueIntensity)
	fastTimes := distributeTime(segments, targetMinutes, aggressiveIntensity)
	slowTimes := distributeTime(segments, targetMinutes, conservativeIntensity)

	startMinutes := startHour * 60
	plan := &PacingPlan{
		TargetMinutes:    targetMinutes,
		FatigueIntensity: fatigueIntensity,
		Points: []PlanPoint{{
			Name:            active[0].Name,
			Kind:            active[0].Kind,
			KM:              0,
			AltitudeM:       math.Round(points[0].ElevationOrZero()),
			TimeOfDay:       formatTimeOfDay(startMinutes),
			TimeOfDayFast:   formatTimeOfDay(startMinutes),
			TimeOfDaySlow:   formatTimeOfDay(startMinutes),
			Elapsed:         formatRaceTime(0),
			SegmentDuration: "-",
		}},
	}

	var (
		cumGain    float64
		cumMin     float64
		cumFastMin float64
		cumSlowMin float64
	)
	for i, seg := range segments {
		cumMin += mainTimes[i]
		cumFastMin += fastTimes[i]
		cumSlowMin += slowTimes[i]
		cumGain += seg.gainM

		plan.Points = append(plan.Points, PlanPoint{
			Name:              seg.to.Name,
			Kind:              seg.to.Kind,
			KM:                round1(seg.to.KM),
			AltitudeM:         math.Round(seg.endAltitude),
			CumulativeGainM:   math.Round(cumGain),
			ElapsedMinutes:    cumMin,
			Elapsed:           formatRaceTime(cumMin),
			TimeOfDay:         formatTimeOfDay(startMinutes + cumMin),
			TimeOfDayFast:     formatTimeOfDay(startMinutes + cumFastMin),
			TimeOfDaySlow:     formatTimeOfDay(startMinutes + cumSlowMin),
			SegmentDistanceKm: round1(seg.distKm),
			SegmentGainM:      math.Round(seg.gainM),
			SegmentLossM:      math.Round(seg.lossM),
			SegmentMinutes:    mainTimes[i],
			SegmentDuration:   formatRaceTime(mainTimes[i]),
		})
	}
	return plan, nil
}

// normalizeWaypoints clamps to track bounds, sorts ascending, and brackets
// the list with synthetic Start/Finish entries when the caller's list does
// not already cover them.
func normalizeWaypoints(waypoints []Waypoint, totalKm float64) []Waypoint {
	sorted := make([]Waypoint, 0, len(waypoints)+2)
	for _, wp := range waypoints {
		if !isFinite(wp.KM) {
			continue
		}
		if wp.KM < 0 {
			wp.KM = 0
		}
		if wp.KM > totalKm {
			wp.KM = totalKm
		}
		sorted = append(sorted, wp)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].KM < sorted[j].KM })

	out := make([]Waypoint, 0, len(sorted)+2)
	if len(sorted) == 0 || sorted[0].KM > startSnapKm {
		out = append(out, Waypoint{KM: 0, Name: "Start", Kind: KindStart})
	}
	out = append(out, sorted...)
	if last := out[len(out)-1]; math.Abs(last.KM-totalKm) > finishSnapKm {
		out = append(out, Waypoint{KM: totalKm, Name: "Finish", Kind: KindFinish})
	}
	return out
}

// scanSegments walks consecutive point pairs once, accumulating distance,
// elevation, and cost, closing one segment each time the cumulative distance
// crosses the next waypoint target. Waypoints that collapse onto the same
// distance yield zero-cost segments rather than an error.
func scanSegments(points []trailmetrics.GeoPoint, active []Waypoint) []segmentCost {
	segments := make([]segmentCost, 0, len(active)-1)
	nextIdx := 1

	var (
		seg     segmentCost
		cumKm   float64
		lastEle = points[0].ElevationOrZero()
	)
	seg.from = active[0]

	for i := 1; i < len(points) && nextIdx < len(active); i++ {
		p1, p2 := points[i-1], points[i]

		distM := p1.DistanceTo(p2)
		distKm := distM / 1000
		cumKm += distKm

		eleDiff := 0.0
		if p1.Elevation != nil && p2.Elevation != nil {
			eleDiff = *p2.Elevation - *p1.Elevation
		}
		gainM := math.Max(0, eleDiff)
		lossM := math.Max(0, -eleDiff)

		cost := distKm + gainM/metersGainPerKmEquivalent
		if distM > 0 {
			if slope := eleDiff / distM * 100; math.Abs(slope) > steepSlopePct {
				cost *= steepPenalty
			}
		}

		seg.distKm += distKm
		seg.gainM += gainM
		seg.lossM += lossM
		seg.cost += cost
		if p2.Elevation != nil {
			lastEle = *p2.Elevation
		}

		for nextIdx < len(active) && cumKm >= active[nextIdx].KM {
			seg.to = active[nextIdx]
			seg.endAltitude = lastEle
			segments = append(segments, seg)

			seg = segmentCost{from: active[nextIdx]}
			nextIdx++
		}
	}

	// Close any trailing segments the scan did not reach (accumulated
	// distance can land a hair short of the final waypoint target).
	for ; nextIdx < len(active); nextIdx++ {
		seg.to = active[nextIdx]
		seg.endAltitude = points[len(points)-1].ElevationOrZero()
		segments = append(segments, seg)
		seg = segmentCost{from: active[nextIdx]}
	}
	return segments
}

// distributeTime allocates targetMinutes across segments. Each segment's
// weighted cost is its raw cost scaled by a drift factor that rises linearly
// with the share of raw cost already spent, then all durations are
// normalized so they sum exactly to targetMinutes.
func distributeTime(segments []segmentCost, targetMinutes, intensity float64) []float64 {
	if len(segments) == 0 {
		return nil
	}

	totalCost := 0.0
	for _, seg := range segments {
		totalCost += seg.cost
	}
	if totalCost == 0 {
		totalCost = 1
	}

	weighted := make([]float64, 0, len(segments))
	weightedTotal := 0.0
	progressCost := 0.0
	for _, seg := range segments {
		drift := 1.0 + (progressCost/totalCost)*intensity
		w := seg.cost * drift
		weighted = append(weighted, w)
		weightedTotal += w
		progressCost += seg.cost
	}
	if weightedTotal == 0 {
		// All-zero costs: split evenly so the conservation invariant holds.
		even := targetMinutes / float64(len(segments))
		times := make([]float64, len(segments))
		for i := range times {
			times[i] = even
		}
		return times
	}

	paceFactor := targetMinutes / weightedTotal
	times := make([]float64, len(weighted))
	for i, w := range weighted {
		times[i] = w * paceFactor
	}
	return times
}

func trackDistanceKm(points []trailmetrics.GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].DistanceTo(points[i])
	}
	return total / 1000
}

// formatRaceTime renders elapsed minutes as "02h35".
func formatRaceTime(minutes float64) string {
	total := int(math.Round(minutes))
	return fmt.Sprintf("%02dh%02d", total/60, total%60)
}

// formatTimeOfDay renders minutes-of-day as "18:30", wrapped modulo 24h.
func formatTimeOfDay(minutes float64) string {
	total := int(math.Round(minutes)) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
