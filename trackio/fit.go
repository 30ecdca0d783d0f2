// Package trackio turns track files into the GeoPoint sequences the
// analytics core consumes. It is the only part of the module that knows
// about file formats.
package trackio

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tormoder/fit"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
)

// PointsFromFIT decodes an activity FIT stream into a point sequence.
// Records without a valid position are skipped; records without altitude
// yield points with nil elevation.
func PointsFromFIT(r io.Reader) ([]trailmetrics.GeoPoint, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT stream: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	points := make([]trailmetrics.GeoPoint, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		if rec.PositionLat.Invalid() || rec.PositionLong.Invalid() {
			continue
		}

		p := trailmetrics.GeoPoint{
			Lat:  rec.PositionLat.Degrees(),
			Lon:  rec.PositionLong.Degrees(),
			Time: validTimeOrZero(rec.Timestamp),
		}
		if alt, ok := extractAltitude(rec); ok {
			p.Elevation = &alt
		}
		points = append(points, p)
	}
	return points, nil
}

func extractAltitude(rec *fit.RecordMsg) (float64, bool) {
	alt := rec.GetEnhancedAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	alt = rec.GetAltitudeScaled()
	if isFinite(alt) {
		return alt, true
	}
	return 0, false
}

// LoadTrack reads a track file, dispatching on the file extension.
func LoadTrack(path string) ([]trailmetrics.GeoPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".fit":
		return PointsFromFIT(f)
	case ".gpx":
		return PointsFromGPX(f)
	default:
		return nil, fmt.Errorf("unsupported track format %q (expected .fit or .gpx)", ext)
	}
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
