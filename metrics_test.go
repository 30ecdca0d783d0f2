package trailmetrics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func elev(v float64) *float64 {
	return &v
}

// squareLoop builds a closed ~1 km-per-edge square at latitude 45.
func squareLoop() []GeoPoint {
	const (
		latStep = 0.008993 // ~1 km
		lonStep = 0.012733 // ~1 km at lat 45
	)
	return []GeoPoint{
		{Lat: 45.0, Lon: 6.0, Elevation: elev(100)},
		{Lat: 45.0 + latStep, Lon: 6.0, Elevation: elev(100)},
		{Lat: 45.0 + latStep, Lon: 6.0 + lonStep, Elevation: elev(100)},
		{Lat: 45.0, Lon: 6.0 + lonStep, Elevation: elev(100)},
		{Lat: 45.0, Lon: 6.0, Elevation: elev(100)},
	}
}

// straightClimb builds a 10-point straight track rising 1000 -> 1500 m
// over ~5 km.
func straightClimb() []GeoPoint {
	const (
		totalLat = 5.0 / 111.195
		steps    = 9
	)
	points := make([]GeoPoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		points = append(points, GeoPoint{
			Lat:       45.0 + totalLat*float64(i)/steps,
			Lon:       6.0,
			Elevation: elev(1000 + 500*float64(i)/steps),
		})
	}
	return points
}

func TestComputeMetricsFlatLoop(t *testing.T) {
	m := ComputeMetrics(squareLoop())

	if math.Abs(m.DistanceKm-4.0) > 0.05 {
		t.Fatalf("distance = %v km, want ~4.0", m.DistanceKm)
	}
	if m.ElevationGainM != 0 || m.ElevationLossM != 0 {
		t.Fatalf("flat loop should have no elevation deltas, got +%v/-%v", m.ElevationGainM, m.ElevationLossM)
	}
	if m.RouteType != RouteLoop {
		t.Fatalf("route type = %q, want %q", m.RouteType, RouteLoop)
	}
	if m.MaxAltitudeM != 100 || m.MinAltitudeM != 100 || m.AvgAltitudeM != 100 {
		t.Fatalf("altitude stats = %v/%v/%v, want 100 across", m.MaxAltitudeM, m.MinAltitudeM, m.AvgAltitudeM)
	}
	if m.EffortScore < 3.9 || m.EffortScore > 4.1 {
		t.Fatalf("effort score = %v, want ~4.0", m.EffortScore)
	}
}

func TestComputeMetricsSingleClimb(t *testing.T) {
	m := ComputeMetrics(straightClimb())

	if math.Abs(m.DistanceKm-5.0) > 0.05 {
		t.Fatalf("distance = %v km, want ~5.0", m.DistanceKm)
	}
	if math.Abs(m.ElevationGainM-500) > 1 {
		t.Fatalf("gain = %v m, want ~500", m.ElevationGainM)
	}
	if m.ElevationLossM != 0 {
		t.Fatalf("monotone climb should have no loss, got %v", m.ElevationLossM)
	}
	if math.Abs(m.EffortScore-10.0) > 0.1 {
		t.Fatalf("effort score = %v, want ~10.0", m.EffortScore)
	}
	if m.MaxSlopePct < 8 || m.MaxSlopePct > 12 {
		t.Fatalf("max slope = %v%%, want ~10%%", m.MaxSlopePct)
	}
	if m.AvgUphillSlopePct < 8 || m.AvgUphillSlopePct > 12 {
		t.Fatalf("avg uphill slope = %v%%, want ~10%%", m.AvgUphillSlopePct)
	}
	if math.Abs(m.LongestClimbM-500) > 1 {
		t.Fatalf("longest climb = %v m, want ~500", m.LongestClimbM)
	}
	if m.RouteType != RoutePointToPoint {
		t.Fatalf("route type = %q, want %q", m.RouteType, RoutePointToPoint)
	}
	if m.ITRAPoints != 0 {
		t.Fatalf("ITRA points = %d, want 0 for effort ~10", m.ITRAPoints)
	}
	if m.EstimatedTimes.Runner != "1h27" {
		t.Fatalf("runner estimate = %q, want 1h27", m.EstimatedTimes.Runner)
	}
}

func TestComputeMetricsIsPure(t *testing.T) {
	points := straightClimb()
	first := ComputeMetrics(points)
	second := ComputeMetrics(points)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("metrics differ between identical calls:\n%s", diff)
	}
}

func TestComputeMetricsDegenerateInput(t *testing.T) {
	if diff := cmp.Diff(TrackMetrics{}, ComputeMetrics(nil)); diff != "" {
		t.Fatalf("empty track should produce zero metrics:\n%s", diff)
	}
	single := []GeoPoint{{Lat: 45, Lon: 6, Elevation: elev(1200)}}
	if diff := cmp.Diff(TrackMetrics{}, ComputeMetrics(single)); diff != "" {
		t.Fatalf("single point should produce zero metrics:\n%s", diff)
	}
}

func TestComputeMetricsMissingElevation(t *testing.T) {
	points := straightClimb()
	for i := range points {
		points[i].Elevation = nil
	}
	m := ComputeMetrics(points)

	if m.ElevationGainM != 0 || m.ElevationLossM != 0 {
		t.Fatalf("missing elevation should contribute no deltas, got +%v/-%v", m.ElevationGainM, m.ElevationLossM)
	}
	if m.MaxSlopePct != 0 || m.AvgUphillSlopePct != 0 {
		t.Fatalf("missing elevation should produce zero slope stats, got %v/%v", m.MaxSlopePct, m.AvgUphillSlopePct)
	}
	if math.Abs(m.DistanceKm-5.0) > 0.05 {
		t.Fatalf("distance should survive missing elevation, got %v", m.DistanceKm)
	}
}

func TestITRAPointsThresholds(t *testing.T) {
	cases := []struct {
		effort float64
		want   int
	}{
		{10, 0},
		{25, 1},
		{39.9, 1},
		{40, 2},
		{65, 3},
		{90, 4},
		{140, 5},
		{190, 6},
		{400, 6},
	}
	for _, tc := range cases {
		if got := itraPoints(tc.effort); got != tc.want {
			t.Errorf("itraPoints(%v) = %d, want %d", tc.effort, got, tc.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, "0h00"},
		{-1, "0h00"},
		{0.5, "0h30"},
		{2.25, "2h15"},
		{11.75, "11h45"},
	}
	for _, tc := range cases {
		if got := FormatHours(tc.hours); got != tc.want {
			t.Errorf("FormatHours(%v) = %q, want %q", tc.hours, got, tc.want)
		}
	}
}
