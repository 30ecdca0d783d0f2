package trackio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Test ridge</name>
    <trkseg>
      <trkpt lat="45.0" lon="6.0"><ele>1000</ele><time>2026-06-01T06:00:00Z</time></trkpt>
      <trkpt lat="45.001" lon="6.0"><ele>1010.5</ele><time>2026-06-01T06:01:00Z</time></trkpt>
      <trkpt lat="45.002" lon="6.0"></trkpt>
    </trkseg>
  </trk>
</gpx>`

const routeOnlyGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="planner" xmlns="http://www.topografix.com/GPX/1/1">
  <rte>
    <rtept lat="44.0" lon="5.0"><ele>800</ele></rtept>
    <rtept lat="44.01" lon="5.0"><ele>850</ele></rtept>
  </rte>
</gpx>`

func TestPointsFromGPXTracks(t *testing.T) {
	points, err := PointsFromGPX(strings.NewReader(sampleGPX))
	if err != nil {
		t.Fatalf("PointsFromGPX error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Lat != 45.0 || points[0].Lon != 6.0 {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if points[1].Elevation == nil || *points[1].Elevation != 1010.5 {
		t.Fatalf("expected elevation 1010.5 on second point, got %+v", points[1].Elevation)
	}
	if points[2].Elevation != nil {
		t.Fatalf("point without <ele> should have nil elevation, got %v", *points[2].Elevation)
	}
	want := time.Date(2026, 6, 1, 6, 1, 0, 0, time.UTC)
	if !points[1].Time.Equal(want) {
		t.Fatalf("second point time = %v, want %v", points[1].Time, want)
	}
}

func TestPointsFromGPXRouteFallback(t *testing.T) {
	points, err := PointsFromGPX(strings.NewReader(routeOnlyGPX))
	if err != nil {
		t.Fatalf("PointsFromGPX error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 route points, got %d", len(points))
	}
	if points[1].Elevation == nil || *points[1].Elevation != 850 {
		t.Fatalf("route point elevation missing: %+v", points[1])
	}
}

func TestPointsFromGPXMalformed(t *testing.T) {
	if _, err := PointsFromGPX(strings.NewReader("<gpx><trk>")); err == nil {
		t.Fatal("expected error for truncated XML")
	}
}

func TestPointsFromFIT(t *testing.T) {
	data := buildTestFIT(t)

	points, err := PointsFromFIT(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PointsFromFIT error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 positioned points, got %d", len(points))
	}
	if math.Abs(points[0].Lat-45.0) > 1e-5 || math.Abs(points[0].Lon-6.0) > 1e-5 {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if points[0].Elevation == nil || math.Abs(*points[0].Elevation-1000) > 0.5 {
		t.Fatalf("expected ~1000 m altitude, got %+v", points[0].Elevation)
	}
	if points[0].Time.IsZero() {
		t.Fatal("expected timestamp on first point")
	}
}

func TestLoadTrackDispatch(t *testing.T) {
	tmp := t.TempDir()

	gpxPath := filepath.Join(tmp, "ridge.gpx")
	if err := os.WriteFile(gpxPath, []byte(sampleGPX), 0o644); err != nil {
		t.Fatalf("write gpx: %v", err)
	}
	points, err := LoadTrack(gpxPath)
	if err != nil {
		t.Fatalf("LoadTrack(gpx) error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points from gpx, got %d", len(points))
	}

	otherPath := filepath.Join(tmp, "track.kml")
	if err := os.WriteFile(otherPath, []byte("<kml/>"), 0o644); err != nil {
		t.Fatalf("write kml: %v", err)
	}
	if _, err := LoadTrack(otherPath); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func buildTestFIT(t *testing.T) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}

	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	start := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)

	first := fit.NewRecordMsg()
	first.Timestamp = start
	first.PositionLat = fit.NewLatitudeDegrees(45.0)
	first.PositionLong = fit.NewLongitudeDegrees(6.0)
	first.Altitude = 7500 // scaled: /5 - 500 = 1000 m
	activity.Records = append(activity.Records, first)

	// Record without position, must be skipped.
	middle := fit.NewRecordMsg()
	middle.Timestamp = start.Add(30 * time.Second)
	middle.HeartRate = 140
	activity.Records = append(activity.Records, middle)

	second := fit.NewRecordMsg()
	second.Timestamp = start.Add(time.Minute)
	second.PositionLat = fit.NewLatitudeDegrees(45.001)
	second.PositionLong = fit.NewLongitudeDegrees(6.0)
	second.Altitude = 7550
	activity.Records = append(activity.Records, second)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}
