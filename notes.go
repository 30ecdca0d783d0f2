package trailmetrics

import (
	"fmt"
	"strings"
)

const (
	highMountainAltitudeM = 2000.0
	verticalRatioMPerKm   = 150.0
	skyrunningSlopePct    = 30.0
)

// RouteAttributes carries inferred tags and flags for a track.
type RouteAttributes struct {
	IsHighMountain bool     `json:"is_high_mountain"`
	Tags           []string `json:"tags,omitempty"`
}

// InferAttributes derives route tags from computed metrics.
func InferAttributes(m TrackMetrics) RouteAttributes {
	attrs := RouteAttributes{}

	if m.MaxAltitudeM > highMountainAltitudeM {
		attrs.IsHighMountain = true
		attrs.Tags = append(attrs.Tags, "High Mountain")
	}

	ratio := 0.0
	if m.DistanceKm > 0 {
		ratio = m.ElevationGainM / m.DistanceKm
	}
	if ratio > verticalRatioMPerKm {
		attrs.Tags = append(attrs.Tags, "Vertical")
	}

	if m.MaxAltitudeM > highMountainAltitudeM && m.MaxSlopePct > skyrunningSlopePct {
		attrs.Tags = append(attrs.Tags, "Skyrunning")
	}

	return attrs
}

// BuildRouteNotes turns computed metrics into a readable route summary.
func BuildRouteNotes(m TrackMetrics, attrs RouteAttributes) string {
	var b strings.Builder

	fmt.Fprintf(
		&b,
		"Route: %.1f km | +%.0f/-%.0f m | %s\n",
		m.DistanceKm,
		m.ElevationGainM,
		m.ElevationLossM,
		routeTypeLabel(m.RouteType),
	)
	fmt.Fprintf(
		&b,
		"Altitude %0.f-%.0f m (avg %.0f) | Max slope %.1f%% | Avg uphill %.1f%%\n",
		m.MinAltitudeM,
		m.MaxAltitudeM,
		m.AvgAltitudeM,
		m.MaxSlopePct,
		m.AvgUphillSlopePct,
	)
	if m.LongestClimbM > 0 {
		fmt.Fprintf(&b, "Longest continuous climb: %.0f m\n", m.LongestClimbM)
	}
	fmt.Fprintf(
		&b,
		"Effort %.1f km-effort | ITRA %d pts | IBP %d\n",
		m.EffortScore,
		m.ITRAPoints,
		m.IBPIndex,
	)
	fmt.Fprintf(
		&b,
		"Estimated times: hiker %s | runner %s | elite %s\n",
		m.EstimatedTimes.Hiker,
		m.EstimatedTimes.Runner,
		m.EstimatedTimes.Elite,
	)

	if len(attrs.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(attrs.Tags, ", "))
	}

	b.WriteString("\nAssessment\n- ")
	b.WriteString(difficultyAssessment(m))
	b.WriteByte('\n')

	return strings.TrimSpace(b.String())
}

func routeTypeLabel(t RouteType) string {
	switch t {
	case RouteLoop:
		return "loop"
	case RouteOutAndBack:
		return "out and back"
	default:
		return "point to point"
	}
}

func difficultyAssessment(m TrackMetrics) string {
	switch {
	case m.ITRAPoints >= 4:
		return "Ultra-distance effort; plan support, fueling, and a pacing strategy per checkpoint."
	case m.ITRAPoints >= 2:
		return "Long mountain outing; manage uphill pacing and carry enough water between aid points."
	case m.AvgUphillSlopePct >= 10:
		return "Short but steep; expect hiking on the climbs even for strong runners."
	default:
		return "Accessible route; a steady effort should hold from start to finish."
	}
}
