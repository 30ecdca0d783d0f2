package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/trail-metrics/pipeline"
)

func main() {
	var (
		trackPath = flag.String("track", "", "Path to input .gpx or .fit track")
		outDir    = flag.String("out", "", "Output directory")
		format    = flag.String("format", "parquet", "Point sample format: parquet|csv")
		overwrite = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
		tolerance = flag.Float64("tolerance", 0, "Simplification tolerance in degrees (0 = default)")

		target    = flag.Float64("target", 0, "Target finish time in minutes (enables pacing plan)")
		startHour = flag.Float64("start-hour", 8, "Race start hour of day (0-24)")
		intensity = flag.Float64("fatigue", 0.2, "Fatigue intensity for the pacing plan (0 = even pace)")
		waypoints = flag.String("waypoints", "", "Path to waypoints JSON file for the pacing plan")

		index      = flag.Float64("index", 0, "Performance index for finish-time prediction")
		predictCfg = flag.String("predict-config", "", "Path to prediction coefficient overrides (JSON)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --track route.gpx --out outdir [--target 480 --waypoints wp.json] [--index 550] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*trackPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	result, err := pipeline.Run(pipeline.Options{
		TrackPath:         *trackPath,
		OutDir:            *outDir,
		Format:            *format,
		Overwrite:         *overwrite,
		CopySource:        true,
		SimplifyTolerance: *tolerance,
		TargetMinutes:     *target,
		StartHour:         *startHour,
		FatigueIntensity:  *intensity,
		WaypointsPath:     *waypoints,
		PerformanceIndex:  *index,
		PredictConfigPath: *predictCfg,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "trail_analyze failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("trail_analyze complete\n")
	fmt.Printf("Output dir:          %s\n", result.OutputDir)
	fmt.Printf("manifest.json:       %s\n", result.ManifestPath)
	fmt.Printf("points.jsonl:        %s\n", result.PointsPath)
	fmt.Printf("track metrics:       %s\n", result.MetricsPath)
	fmt.Printf("route notes:         %s\n", result.NotesPath)
	fmt.Printf("point samples:       %s\n", result.SamplesPath)
	fmt.Printf("track geojson:       %s\n", result.GeoJSONPath)
	if result.PacingPlanPath != "" {
		fmt.Printf("pacing plan:         %s\n", result.PacingPlanPath)
	}
	if result.PredictionPath != "" {
		fmt.Printf("prediction:          %s\n", result.PredictionPath)
	}
	if result.SourceCopyPath != "" {
		fmt.Printf("source copy:         %s\n", result.SourceCopyPath)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning:             %s\n", w)
	}
}
