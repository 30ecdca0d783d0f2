package trailmetrics

import (
	"strings"
	"testing"
)

func TestInferAttributes(t *testing.T) {
	m := TrackMetrics{
		DistanceKm:     10,
		ElevationGainM: 1600,
		MaxAltitudeM:   2400,
		MaxSlopePct:    35,
	}
	attrs := InferAttributes(m)

	if !attrs.IsHighMountain {
		t.Fatal("expected high mountain flag above 2000 m")
	}
	for _, want := range []string{"High Mountain", "Vertical", "Skyrunning"} {
		found := false
		for _, tag := range attrs.Tags {
			if tag == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing tag %q in %v", want, attrs.Tags)
		}
	}

	flat := InferAttributes(TrackMetrics{DistanceKm: 8, ElevationGainM: 50, MaxAltitudeM: 300})
	if flat.IsHighMountain || len(flat.Tags) != 0 {
		t.Fatalf("flat lowland track should carry no tags, got %+v", flat)
	}
}

func TestBuildRouteNotes(t *testing.T) {
	m := ComputeMetrics(straightClimb())
	notes := BuildRouteNotes(m, InferAttributes(m))

	if !strings.Contains(notes, "5.0 km") {
		t.Fatalf("notes missing distance line:\n%s", notes)
	}
	if !strings.Contains(notes, "point to point") {
		t.Fatalf("notes missing route type:\n%s", notes)
	}
	if !strings.Contains(notes, "Assessment") {
		t.Fatalf("notes missing assessment section:\n%s", notes)
	}
}
