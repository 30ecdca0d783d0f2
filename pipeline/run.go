// Package pipeline orchestrates the full trail_analyze run: load a track,
// export the lossless point bundle, compute route metrics, and write every
// analysis artifact into one output directory.
package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
	"github.com/lucasjlepore/trail-metrics/predict"
	"github.com/lucasjlepore/trail-metrics/raceplan"
	"github.com/lucasjlepore/trail-metrics/trackexport"
	"github.com/lucasjlepore/trail-metrics/trackio"
)

// Run executes the full trail_analyze pipeline and writes all artifacts.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.TrackPath) == "" {
		return nil, fmt.Errorf("track path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}

	points, err := trackio.LoadTrack(opts.TrackPath)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("track has %d usable points, need at least 2", len(points))
	}

	bundle, err := trackexport.ExportPoints(opts.TrackPath, points, opts.OutDir, trackexport.ExportOptions{
		Overwrite:      opts.Overwrite,
		CopySourceFile: opts.CopySource,
	})
	if err != nil {
		return nil, err
	}

	metrics := trailmetrics.ComputeMetrics(points)
	metricsPath := filepath.Join(opts.OutDir, "track_metrics.json")
	if err := writeJSON(metricsPath, metrics); err != nil {
		return nil, fmt.Errorf("write track_metrics.json: %w", err)
	}

	notesPath := filepath.Join(opts.OutDir, "route_notes.txt")
	notes := trailmetrics.BuildRouteNotes(metrics, trailmetrics.InferAttributes(metrics))
	if err := os.WriteFile(notesPath, []byte(notes), 0o644); err != nil {
		return nil, fmt.Errorf("write route_notes.txt: %w", err)
	}

	samples := buildPointSamples(points)
	samplesPath := filepath.Join(opts.OutDir, "point_samples."+formatExtension(format))
	switch format {
	case "csv":
		if err := writeSamplesCSV(samplesPath, samples); err != nil {
			return nil, fmt.Errorf("write point samples csv: %w", err)
		}
	case "parquet":
		if err := writeSamplesParquet(samplesPath, samples); err != nil {
			return nil, fmt.Errorf("write point samples parquet: %w", err)
		}
	}

	simplified := trailmetrics.Simplify(points, opts.SimplifyTolerance)
	geojsonPath := filepath.Join(opts.OutDir, "track.geojson")
	if err := writeTrackGeoJSON(geojsonPath, simplified, metrics); err != nil {
		return nil, fmt.Errorf("write track.geojson: %w", err)
	}

	result := &Result{
		OutputDir:       opts.OutDir,
		ManifestPath:    bundle.ManifestPath,
		PointsPath:      bundle.PointsPath,
		SourceCopyPath:  bundle.SourceCopyPath,
		MetricsPath:     metricsPath,
		NotesPath:       notesPath,
		SamplesPath:     samplesPath,
		GeoJSONPath:     geojsonPath,
		PointCount:      len(points),
		SimplifiedCount: len(simplified),
	}

	if opts.TargetMinutes > 0 {
		waypoints, err := loadWaypoints(opts.WaypointsPath)
		if err != nil {
			return nil, err
		}
		plan, err := raceplan.Plan(points, waypoints, opts.TargetMinutes, opts.StartHour, opts.FatigueIntensity)
		if err != nil {
			return nil, fmt.Errorf("build pacing plan: %w", err)
		}
		planPath := filepath.Join(opts.OutDir, "pacing_plan.json")
		if err := writeJSON(planPath, plan); err != nil {
			return nil, fmt.Errorf("write pacing_plan.json: %w", err)
		}
		result.PacingPlanPath = planPath
	}

	if opts.PerformanceIndex > 0 || strings.TrimSpace(opts.PredictConfigPath) != "" {
		cfg, err := loadPredictConfig(opts.PredictConfigPath)
		if err != nil {
			return nil, err
		}
		prediction, err := predict.Predict(metrics, opts.PerformanceIndex, cfg)
		switch {
		case errors.Is(err, predict.ErrUnavailable):
			result.Warnings = append(result.Warnings, "prediction unavailable: "+err.Error())
		case err != nil:
			return nil, fmt.Errorf("finish-time prediction: %w", err)
		default:
			predictionPath := filepath.Join(opts.OutDir, "prediction.json")
			if err := writeJSON(predictionPath, prediction); err != nil {
				return nil, fmt.Errorf("write prediction.json: %w", err)
			}
			result.PredictionPath = predictionPath
		}
	}

	return result, nil
}

func formatExtension(format string) string {
	if format == "csv" {
		return "csv"
	}
	return "parquet"
}

func buildPointSamples(points []trailmetrics.GeoPoint) []PointSample {
	samples := make([]PointSample, 0, len(points))
	cumDistM := 0.0
	cumGain := 0.0
	cumLoss := 0.0
	for i, p := range points {
		var slope *float64
		if i > 0 {
			prev := points[i-1]
			stepM := prev.DistanceTo(p)
			cumDistM += stepM
			if prev.Elevation != nil && p.Elevation != nil {
				delta := *p.Elevation - *prev.Elevation
				if delta > 0 {
					cumGain += delta
				} else {
					cumLoss += -delta
				}
				if stepM > 0 {
					s := delta / stepM * 100
					slope = &s
				}
			}
		}

		sample := PointSample{
			Index:         i,
			Lat:           p.Lat,
			Lon:           p.Lon,
			ElevationM:    p.Elevation,
			Time:          p.Time,
			CumDistanceKm: cumDistM / 1000,
			CumGainM:      cumGain,
			CumLossM:      cumLoss,
			SegmentSlope:  slope,
		}
		if !p.Time.IsZero() {
			sample.TSUTCISO = p.Time.UTC().Format(time.RFC3339)
		}
		samples = append(samples, sample)
	}
	return samples
}

func writeSamplesCSV(path string, samples []PointSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"index", "lat", "lon", "elevation_m", "ts_utc_iso",
		"cum_distance_km", "cum_gain_m", "cum_loss_m", "segment_slope_pct",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Index),
			formatFloat(s.Lat),
			formatFloat(s.Lon),
			formatFloatPtr(s.ElevationM),
			s.TSUTCISO,
			formatFloat(s.CumDistanceKm),
			formatFloat(s.CumGainM),
			formatFloat(s.CumLossM),
			formatFloatPtr(s.SegmentSlope),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type samplesParquetRow struct {
	Index         int64   `parquet:"name=index, type=INT64"`
	Lat           float64 `parquet:"name=lat, type=DOUBLE"`
	Lon           float64 `parquet:"name=lon, type=DOUBLE"`
	ElevationM    float64 `parquet:"name=elevation_m, type=DOUBLE"`
	TSUTCISO      string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CumDistanceKm float64 `parquet:"name=cum_distance_km, type=DOUBLE"`
	CumGainM      float64 `parquet:"name=cum_gain_m, type=DOUBLE"`
	CumLossM      float64 `parquet:"name=cum_loss_m, type=DOUBLE"`
	SegmentSlope  float64 `parquet:"name=segment_slope_pct, type=DOUBLE"`
}

func writeSamplesParquet(path string, samples []PointSample) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(samplesParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := samplesParquetRow{
			Index:         int64(s.Index),
			Lat:           s.Lat,
			Lon:           s.Lon,
			ElevationM:    valueOrNaN(s.ElevationM),
			TSUTCISO:      s.TSUTCISO,
			CumDistanceKm: s.CumDistanceKm,
			CumGainM:      s.CumGainM,
			CumLossM:      s.CumLossM,
			SegmentSlope:  valueOrNaN(s.SegmentSlope),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

func writeTrackGeoJSON(path string, points []trailmetrics.GeoPoint, metrics trailmetrics.TrackMetrics) error {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		if p.Elevation != nil {
			coords = append(coords, []float64{p.Lon, p.Lat, *p.Elevation})
		} else {
			coords = append(coords, []float64{p.Lon, p.Lat})
		}
	}
	fc := geoJSONFeatureCollection{
		Type: "FeatureCollection",
		Features: []geoJSONFeature{{
			Type: "Feature",
			Properties: map[string]any{
				"distance_km":      metrics.DistanceKm,
				"elevation_gain_m": metrics.ElevationGainM,
				"route_type":       metrics.RouteType,
			},
			Geometry: geoJSONGeometry{
				Type:        "LineString",
				Coordinates: coords,
			},
		}},
	}
	return writeJSON(path, fc)
}

func loadWaypoints(path string) ([]raceplan.Waypoint, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waypoints file: %w", err)
	}
	var waypoints []raceplan.Waypoint
	if err := json.Unmarshal(data, &waypoints); err != nil {
		return nil, fmt.Errorf("parse waypoints file: %w", err)
	}
	return waypoints, nil
}

func loadPredictConfig(path string) (predict.Config, error) {
	cfg := predict.DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read prediction config: %w", err)
	}
	var overrides map[string]float64
	if err := json.Unmarshal(data, &overrides); err != nil {
		return cfg, fmt.Errorf("parse prediction config: %w", err)
	}
	cfg = cfg.WithOverrides(overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid prediction config: %w", err)
	}
	return cfg, nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
