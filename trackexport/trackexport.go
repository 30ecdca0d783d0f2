// Package trackexport writes a lossless point bundle for a track: a
// manifest with provenance metadata plus one JSONL line per point in
// original order. Downstream tools re-read the bundle without touching the
// source file format again.
package trackexport

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
)

// ExportFormatVersion identifies the on-disk schema for point bundles.
const ExportFormatVersion = "trail_points_jsonl_v1"

// ExportOptions controls export behavior.
type ExportOptions struct {
	// Overwrite allows writing into a non-empty output directory.
	Overwrite bool

	// CopySourceFile writes a byte-for-byte copy of the source track file
	// to the output directory.
	CopySourceFile bool
}

// ExportResult describes generated files.
type ExportResult struct {
	OutputDir       string `json:"output_dir"`
	ManifestPath    string `json:"manifest_path"`
	PointsPath      string `json:"points_path"`
	SourceCopyPath  string `json:"source_copy_path,omitempty"`
	PointCount      int    `json:"point_count"`
	SourceSHA256    string `json:"source_sha256"`
	SourceSizeBytes int64  `json:"source_size_bytes"`
}

// Manifest captures export metadata and pointers to exported files.
type Manifest struct {
	FormatVersion   string    `json:"format_version"`
	GeneratedAt     time.Time `json:"generated_at"`
	SourceFile      string    `json:"source_file"`
	SourceFileName  string    `json:"source_file_name"`
	SourceSHA256    string    `json:"source_sha256"`
	SourceSizeBytes int64     `json:"source_size_bytes"`
	PointsPath      string    `json:"points_path"`
	PointCount      int       `json:"point_count"`
	Bounds          *Bounds   `json:"bounds,omitempty"`
}

// Bounds is the bounding box of the exported points.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

type pointRecord struct {
	Index      int        `json:"index"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	ElevationM *float64   `json:"elevation_m,omitempty"`
	Time       *time.Time `json:"time,omitempty"`
}

// ExportPoints writes the point bundle for sourcePath into outputDir.
func ExportPoints(sourcePath string, points []trailmetrics.GeoPoint, outputDir string, opts ExportOptions) (*ExportResult, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, fmt.Errorf("source path is required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("read source track: %w", err)
	}
	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	if err := ensureOutputDir(outputDir, opts.Overwrite); err != nil {
		return nil, err
	}

	pointsPath := filepath.Join(outputDir, "points.jsonl")
	if err := writePointsJSONL(pointsPath, points); err != nil {
		return nil, fmt.Errorf("write points.jsonl: %w", err)
	}

	manifest := Manifest{
		FormatVersion:   ExportFormatVersion,
		GeneratedAt:     time.Now().UTC(),
		SourceFile:      sourcePath,
		SourceFileName:  filepath.Base(sourcePath),
		SourceSHA256:    sha,
		SourceSizeBytes: int64(len(data)),
		PointsPath:      filepath.Base(pointsPath),
		PointCount:      len(points),
		Bounds:          pointBounds(points),
	}
	manifestPath := filepath.Join(outputDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}

	sourceCopyPath := ""
	if opts.CopySourceFile {
		sourceCopyPath = filepath.Join(outputDir, "source"+strings.ToLower(filepath.Ext(sourcePath)))
		if err := os.WriteFile(sourceCopyPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("copy source track: %w", err)
		}
	}

	return &ExportResult{
		OutputDir:       outputDir,
		ManifestPath:    manifestPath,
		PointsPath:      pointsPath,
		SourceCopyPath:  sourceCopyPath,
		PointCount:      len(points),
		SourceSHA256:    sha,
		SourceSizeBytes: int64(len(data)),
	}, nil
}

// ReadPoints loads a points.jsonl file back into a point sequence.
func ReadPoints(path string) ([]trailmetrics.GeoPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open points file: %w", err)
	}
	defer f.Close()
	return readPoints(f)
}

func readPoints(r io.Reader) ([]trailmetrics.GeoPoint, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 16*1024*1024)

	points := make([]trailmetrics.GeoPoint, 0, 1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec pointRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal jsonl line: %w", err)
		}
		p := trailmetrics.GeoPoint{Lat: rec.Lat, Lon: rec.Lon, Elevation: rec.ElevationM}
		if rec.Time != nil {
			p.Time = *rec.Time
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func pointBounds(points []trailmetrics.GeoPoint) *Bounds {
	if len(points) == 0 {
		return nil
	}
	b := Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Lon < b.MinLon {
			b.MinLon = p.Lon
		}
		if p.Lon > b.MaxLon {
			b.MaxLon = p.Lon
		}
	}
	return &b
}

func writePointsJSONL(path string, points []trailmetrics.GeoPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, p := range points {
		rec := pointRecord{
			Index:      i,
			Lat:        p.Lat,
			Lon:        p.Lon,
			ElevationM: p.Elevation,
		}
		if !p.Time.IsZero() {
			ts := p.Time.UTC()
			rec.Time = &ts
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
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
