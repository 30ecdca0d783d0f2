package predict

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds the tunable regression coefficients for finish-time
// prediction. JSON keys match the persisted coefficient store so callers can
// round-trip overrides. The predictor never mutates a Config; callers that
// refresh coefficients must snapshot before a prediction.
type Config struct {
	// Base speed regression on the performance index, in effort-km/h.
	BaseSpeedSlope     float64 `json:"base_speed_slope" validate:"gt=0"`
	BaseSpeedIntercept float64 `json:"base_speed_intercept" validate:"gte=0"`
	MinSpeedKmeh       float64 `json:"min_speed_kmeh" validate:"gt=0"`

	// Technicality thresholds on gradient ratio (m gain per km), each with
	// an increasingly severe speed multiplier.
	Tech1ThresholdMPerKm float64 `json:"tech_factor_1_threshold" validate:"gt=0"`
	Tech1Hilly           float64 `json:"tech_factor_1_hilly" validate:"gt=0,lte=1"`
	Tech2ThresholdMPerKm float64 `json:"tech_factor_2_threshold" validate:"gt=0"`
	Tech2Mountain        float64 `json:"tech_factor_2_mountain" validate:"gt=0,lte=1"`
	Tech3ThresholdMPerKm float64 `json:"tech_factor_3_threshold" validate:"gt=0"`
	Tech3Alpine          float64 `json:"tech_factor_3_alpine" validate:"gt=0,lte=1"`

	// Distance decay: once km-effort exceeds DecayStartKm, speed degrades
	// by DecayRatePerStep per DecayStepKm, capped at DecayMaxTotal.
	DecayStartKm     float64 `json:"decay_start_km" validate:"gt=0"`
	DecayStepKm      float64 `json:"decay_step_km" validate:"gt=0"`
	DecayRatePerStep float64 `json:"decay_rate_per_step" validate:"gte=0"`
	DecayMaxTotal    float64 `json:"decay_max_total" validate:"gte=0,lt=1"`

	// Scenario intensity multipliers applied to the adjusted speed.
	EnduranceMultiplier float64 `json:"endurance_multiplier" validate:"gt=0"`
	PushMultiplier      float64 `json:"push_multiplier" validate:"gt=0"`
}

// DefaultConfig returns the shipped coefficient set.
func DefaultConfig() Config {
	return Config{
		BaseSpeedSlope:       0.024,
		BaseSpeedIntercept:   4.0,
		MinSpeedKmeh:         3.0,
		Tech1ThresholdMPerKm: 40,
		Tech1Hilly:           0.95,
		Tech2ThresholdMPerKm: 60,
		Tech2Mountain:        0.85,
		Tech3ThresholdMPerKm: 90,
		Tech3Alpine:          0.70,
		DecayStartKm:         40,
		DecayStepKm:          20,
		DecayRatePerStep:     0.05,
		DecayMaxTotal:        0.40,
		EnduranceMultiplier:  0.85,
		PushMultiplier:       1.15,
	}
}

// WithOverrides returns a copy of c with any recognized keys replaced by the
// supplied values. Unknown keys are ignored; override wins on collision.
func (c Config) WithOverrides(overrides map[string]float64) Config {
	for key, v := range overrides {
		switch key {
		case "base_speed_slope":
			c.BaseSpeedSlope = v
		case "base_speed_intercept":
			c.BaseSpeedIntercept = v
		case "min_speed_kmeh":
			c.MinSpeedKmeh = v
		case "tech_factor_1_threshold":
			c.Tech1ThresholdMPerKm = v
		case "tech_factor_1_hilly":
			c.Tech1Hilly = v
		case "tech_factor_2_threshold":
			c.Tech2ThresholdMPerKm = v
		case "tech_factor_2_mountain":
			c.Tech2Mountain = v
		case "tech_factor_3_threshold":
			c.Tech3ThresholdMPerKm = v
		case "tech_factor_3_alpine":
			c.Tech3Alpine = v
		case "decay_start_km":
			c.DecayStartKm = v
		case "decay_step_km":
			c.DecayStepKm = v
		case "decay_rate_per_step":
			c.DecayRatePerStep = v
		case "decay_max_total":
			c.DecayMaxTotal = v
		case "endurance_multiplier":
			c.EnduranceMultiplier = v
		case "push_multiplier":
			c.PushMultiplier = v
		}
	}
	return c
}

var configValidator = validator.New()

// Validate checks coefficient sanity. Predict itself does not validate; call
// this after merging caller-supplied overrides.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("prediction config: %w", err)
	}
	return nil
}
