package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
	"github.com/lucasjlepore/trail-metrics/predict"
	"github.com/lucasjlepore/trail-metrics/raceplan"
)

// buildTestGPX produces a 5 km straight climb from 1000 m to 1250 m.
func buildTestGPX(t *testing.T, dir string) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"><trk><trkseg>` + "\n")
	const steps = 50
	for i := 0; i <= steps; i++ {
		lat := 45.0 + float64(i)*(5.0/float64(steps))/111.195
		ele := 1000.0 + float64(i)*(250.0/float64(steps))
		sb.WriteString(fmt.Sprintf(`<trkpt lat="%.7f" lon="6.0"><ele>%.1f</ele></trkpt>`+"\n", lat, ele))
	}
	sb.WriteString(`</trkseg></trk></gpx>`)

	path := filepath.Join(dir, "climb.gpx")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write gpx fixture: %v", err)
	}
	return path
}

func TestRunWritesCoreArtifacts(t *testing.T) {
	tmp := t.TempDir()
	track := buildTestGPX(t, tmp)
	outDir := filepath.Join(tmp, "out")

	res, err := Run(Options{TrackPath: track, OutDir: outDir, Format: "csv"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.PointCount != 51 {
		t.Fatalf("point count = %d, want 51", res.PointCount)
	}
	if res.SimplifiedCount < 2 || res.SimplifiedCount > res.PointCount {
		t.Fatalf("simplified count out of range: %d", res.SimplifiedCount)
	}

	for _, path := range []string{res.ManifestPath, res.PointsPath, res.MetricsPath, res.NotesPath, res.SamplesPath, res.GeoJSONPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing artifact %s: %v", path, err)
		}
	}
	if res.PacingPlanPath != "" || res.PredictionPath != "" {
		t.Fatalf("optional artifacts produced without being requested: %+v", res)
	}

	data, err := os.ReadFile(res.MetricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	var m trailmetrics.TrackMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal metrics: %v", err)
	}
	if m.DistanceKm < 4.9 || m.DistanceKm > 5.1 {
		t.Fatalf("distance = %v, want ~5.0", m.DistanceKm)
	}
	if m.ElevationGainM < 249 || m.ElevationGainM > 251 {
		t.Fatalf("gain = %v, want ~250", m.ElevationGainM)
	}

	samples, err := os.ReadFile(res.SamplesPath)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(samples)), "\n")
	if len(lines) != 52 { // header + 51 rows
		t.Fatalf("samples csv rows = %d, want 52", len(lines))
	}
	if !strings.HasPrefix(lines[0], "index,lat,lon,elevation_m") {
		t.Fatalf("unexpected csv header: %q", lines[0])
	}

	notes, err := os.ReadFile(res.NotesPath)
	if err != nil {
		t.Fatalf("read notes: %v", err)
	}
	if !strings.Contains(string(notes), "5.0 km") {
		t.Fatalf("route notes missing distance line:\n%s", notes)
	}
}

func TestRunGeoJSONGeometry(t *testing.T) {
	tmp := t.TempDir()
	track := buildTestGPX(t, tmp)
	outDir := filepath.Join(tmp, "out")

	res, err := Run(Options{TrackPath: track, OutDir: outDir, Format: "csv"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	data, err := os.ReadFile(res.GeoJSONPath)
	if err != nil {
		t.Fatalf("read geojson: %v", err)
	}
	var fc geoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("unmarshal geojson: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected geojson shape: %+v", fc)
	}
	geom := fc.Features[0].Geometry
	if geom.Type != "LineString" {
		t.Fatalf("geometry type = %q, want LineString", geom.Type)
	}
	if len(geom.Coordinates) != res.SimplifiedCount {
		t.Fatalf("coordinate count = %d, want %d", len(geom.Coordinates), res.SimplifiedCount)
	}
	// Coordinates are [lon, lat, ele].
	first := geom.Coordinates[0]
	if len(first) != 3 || first[0] != 6.0 || first[1] != 45.0 {
		t.Fatalf("unexpected first coordinate: %v", first)
	}
}

func TestRunWithPacingPlanAndPrediction(t *testing.T) {
	tmp := t.TempDir()
	track := buildTestGPX(t, tmp)
	outDir := filepath.Join(tmp, "out")

	waypoints := []raceplan.Waypoint{{KM: 2.5, Name: "Col du Test", Kind: raceplan.KindWater}}
	wpData, err := json.Marshal(waypoints)
	if err != nil {
		t.Fatalf("marshal waypoints: %v", err)
	}
	wpPath := filepath.Join(tmp, "waypoints.json")
	if err := os.WriteFile(wpPath, wpData, 0o644); err != nil {
		t.Fatalf("write waypoints: %v", err)
	}

	res, err := Run(Options{
		TrackPath:        track,
		OutDir:           outDir,
		Format:           "csv",
		TargetMinutes:    120,
		StartHour:        8,
		FatigueIntensity: 0.2,
		WaypointsPath:    wpPath,
		PerformanceIndex: 500,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	data, err := os.ReadFile(res.PacingPlanPath)
	if err != nil {
		t.Fatalf("read pacing plan: %v", err)
	}
	var plan raceplan.PacingPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		t.Fatalf("unmarshal pacing plan: %v", err)
	}
	// Start, waypoint, finish.
	if len(plan.Points) != 3 {
		t.Fatalf("plan points = %d, want 3", len(plan.Points))
	}
	if plan.Points[1].Name != "Col du Test" {
		t.Fatalf("middle point = %q, want Col du Test", plan.Points[1].Name)
	}
	if plan.TargetMinutes != 120 {
		t.Fatalf("target minutes = %v, want 120", plan.TargetMinutes)
	}

	data, err = os.ReadFile(res.PredictionPath)
	if err != nil {
		t.Fatalf("read prediction: %v", err)
	}
	var pred predict.Result
	if err := json.Unmarshal(data, &pred); err != nil {
		t.Fatalf("unmarshal prediction: %v", err)
	}
	if pred.UserIndex != 500 {
		t.Fatalf("user index = %v, want 500", pred.UserIndex)
	}
	if pred.Times.Race == "" {
		t.Fatal("prediction race time missing")
	}
}

func TestRunPredictConfigOverrides(t *testing.T) {
	tmp := t.TempDir()
	track := buildTestGPX(t, tmp)
	outDir := filepath.Join(tmp, "out")

	cfgPath := filepath.Join(tmp, "predict.json")
	if err := os.WriteFile(cfgPath, []byte(`{"push_multiplier": 1.3}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res, err := Run(Options{
		TrackPath:         track,
		OutDir:            outDir,
		Format:            "csv",
		PerformanceIndex:  500,
		PredictConfigPath: cfgPath,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.PredictionPath == "" {
		t.Fatal("expected prediction artifact")
	}

	badPath := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"push_multiplier": -1}`), 0o644); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	_, err = Run(Options{
		TrackPath:         track,
		OutDir:            filepath.Join(tmp, "out2"),
		Format:            "csv",
		PerformanceIndex:  500,
		PredictConfigPath: badPath,
	})
	if err == nil {
		t.Fatal("expected error for invalid prediction config")
	}
}

func TestRunRejectsBadInputs(t *testing.T) {
	tmp := t.TempDir()
	track := buildTestGPX(t, tmp)

	if _, err := Run(Options{OutDir: tmp}); err == nil {
		t.Fatal("expected error for missing track path")
	}
	if _, err := Run(Options{TrackPath: track}); err == nil {
		t.Fatal("expected error for missing output dir")
	}
	if _, err := Run(Options{TrackPath: track, OutDir: filepath.Join(tmp, "o"), Format: "xlsx"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
