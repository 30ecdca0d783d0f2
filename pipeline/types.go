package pipeline

import "time"

// Options configures the trail_analyze pipeline.
type Options struct {
	TrackPath  string
	OutDir     string
	Format     string // parquet|csv
	Overwrite  bool
	CopySource bool

	// SimplifyTolerance is the simplification tolerance in degrees for the
	// GeoJSON artifact. Zero selects the default.
	SimplifyTolerance float64

	// Pacing plan inputs. A plan is produced only when TargetMinutes > 0.
	TargetMinutes    float64
	StartHour        float64
	FatigueIntensity float64
	WaypointsPath    string

	// Prediction inputs. A prediction is attempted when PerformanceIndex > 0
	// or PredictConfigPath is set.
	PerformanceIndex  float64
	PredictConfigPath string
}

// Result returns generated output paths.
type Result struct {
	OutputDir       string   `json:"output_dir"`
	ManifestPath    string   `json:"manifest_path"`
	PointsPath      string   `json:"points_path"`
	SourceCopyPath  string   `json:"source_copy_path,omitempty"`
	MetricsPath     string   `json:"metrics_path"`
	NotesPath       string   `json:"notes_path"`
	SamplesPath     string   `json:"samples_path"`
	GeoJSONPath     string   `json:"geojson_path"`
	PacingPlanPath  string   `json:"pacing_plan_path,omitempty"`
	PredictionPath  string   `json:"prediction_path,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	PointCount      int      `json:"point_count"`
	SimplifiedCount int      `json:"simplified_count"`
}

// PointSample is one per-point row of the samples artifact: the raw point
// plus cumulative distance and gain along the track.
type PointSample struct {
	Index         int       `json:"index"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	ElevationM    *float64  `json:"elevation_m,omitempty"`
	Time          time.Time `json:"-"`
	TSUTCISO      string    `json:"ts_utc_iso,omitempty"`
	CumDistanceKm float64   `json:"cum_distance_km"`
	CumGainM      float64   `json:"cum_gain_m"`
	CumLossM      float64   `json:"cum_loss_m"`
	SegmentSlope  *float64  `json:"segment_slope_pct,omitempty"`
}
