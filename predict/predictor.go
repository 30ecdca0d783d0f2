// Package predict estimates trail race finish times from aggregate track
// metrics, a runner performance index, and a tunable coefficient set.
package predict

import (
	"errors"
	"fmt"
	"math"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
)

// ErrUnavailable signals a prediction request on a track without distance
// data. "No data yet" is an expected steady state for fresh tracks, so
// callers should treat this as a sentinel, not a failure.
var ErrUnavailable = errors.New("predict: prediction unavailable without track distance")

const (
	// DefaultPerformanceIndex is a novice-level index used when the runner
	// has no rating in any supported system.
	DefaultPerformanceIndex = 400.0

	// absoluteMinSpeedKmeh floors the adjusted speed after all
	// corrections, so adversarial coefficients can never produce a zero or
	// negative time.
	absoluteMinSpeedKmeh = 2.5

	// vo2maxIndexDivisor approximates VO2max from the performance index
	// (400 -> ~34 ml/kg/min, 800 -> ~69).
	vo2maxIndexDivisor = 11.6

	metersGainPerKmEquivalent = 100.0

	displayCapHours = 99.0
)

// ScenarioTimes holds formatted finish times per effort intensity.
type ScenarioTimes struct {
	Endurance string `json:"endurance"`
	Race      string `json:"race"`
	Push      string `json:"push"`
}

// Result is one finish-time prediction.
type Result struct {
	UserIndex float64       `json:"user_index"`
	VO2MaxEst float64       `json:"vo2max_est"`
	KmEffort  float64       `json:"km_effort"`
	Times     ScenarioTimes `json:"times"`
	RaceHours float64       `json:"race_hours"`
}

// BestIndex picks the best available of the three supported rating systems,
// falling back to DefaultPerformanceIndex when none is present. Only the
// numeric values matter here, not their provenance.
func BestIndex(utmb, itra, betrail float64) float64 {
	best := 0.0
	for _, idx := range []float64{utmb, itra, betrail} {
		if idx > best {
			best = idx
		}
	}
	if best <= 0 {
		return DefaultPerformanceIndex
	}
	return best
}

// Predict estimates finish times for endurance, race, and push intensities.
// It is a pure function of its inputs: cfg is read-only for the duration of
// the call, and identical inputs yield identical results.
func Predict(m trailmetrics.TrackMetrics, performanceIndex float64, cfg Config) (*Result, error) {
	dist := m.DistanceKm
	elev := m.ElevationGainM
	if dist <= 0 {
		return nil, ErrUnavailable
	}

	index := performanceIndex
	if index <= 0 {
		index = DefaultPerformanceIndex
	}

	kmEffort := dist + elev/metersGainPerKmEquivalent
	gradientRatio := elev / dist

	baseSpeed := cfg.BaseSpeedSlope*index - cfg.BaseSpeedIntercept
	if baseSpeed < cfg.MinSpeedKmeh {
		baseSpeed = cfg.MinSpeedKmeh
	}

	adjusted := baseSpeed * techFactor(gradientRatio, cfg) * decayFactor(kmEffort, cfg)
	if adjusted < absoluteMinSpeedKmeh {
		adjusted = absoluteMinSpeedKmeh
	}

	enduranceH := kmEffort / (adjusted * cfg.EnduranceMultiplier)
	raceH := kmEffort / adjusted
	pushH := kmEffort / (adjusted * cfg.PushMultiplier)

	return &Result{
		UserIndex: index,
		VO2MaxEst: math.Round(index/vo2maxIndexDivisor*10) / 10,
		KmEffort:  math.Round(kmEffort*10) / 10,
		Times: ScenarioTimes{
			Endurance: FormatPrediction(enduranceH),
			Race:      FormatPrediction(raceH),
			Push:      FormatPrediction(pushH),
		},
		RaceHours: math.Round(raceH*100) / 100,
	}, nil
}

// techFactor derates speed for steep average grades. This operates on the
// aggregate gradient ratio and is independent of the per-step steepness
// penalty used in pacing cost.
func techFactor(gradientRatio float64, cfg Config) float64 {
	factor := 1.0
	if gradientRatio > cfg.Tech1ThresholdMPerKm {
		factor = cfg.Tech1Hilly
	}
	if gradientRatio > cfg.Tech2ThresholdMPerKm {
		factor = cfg.Tech2Mountain
	}
	if gradientRatio > cfg.Tech3ThresholdMPerKm {
		factor = cfg.Tech3Alpine
	}
	return factor
}

// decayFactor derates speed linearly once km-effort exceeds the decay
// threshold, capped at the configured maximum total degradation.
func decayFactor(kmEffort float64, cfg Config) float64 {
	if kmEffort <= cfg.DecayStartKm || cfg.DecayStepKm <= 0 {
		return 1.0
	}
	over := kmEffort - cfg.DecayStartKm
	decay := over / cfg.DecayStepKm * cfg.DecayRatePerStep
	if decay > cfg.DecayMaxTotal {
		decay = cfg.DecayMaxTotal
	}
	return 1.0 - decay
}

// FormatPrediction renders fractional hours as "12h45", capping the display
// at ">99h" for extreme inputs.
func FormatPrediction(hours float64) string {
	if hours > displayCapHours {
		return ">99h"
	}
	if hours < 0 {
		hours = 0
	}
	h := int(hours)
	m := int((hours - float64(h)) * 60)
	return fmt.Sprintf("%dh%02d", h, m)
}
