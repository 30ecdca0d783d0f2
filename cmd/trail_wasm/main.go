//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"syscall/js"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
	"github.com/lucasjlepore/trail-metrics/predict"
	"github.com/lucasjlepore/trail-metrics/raceplan"
	"github.com/lucasjlepore/trail-metrics/trackio"
)

func main() {
	js.Global().Set("analyzeTrack", js.FuncOf(analyzeTrack))
	select {}
}

func analyzeTrack(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errResult("expected arguments: fileBytes(Uint8Array), options(object)")
	}
	fileArg := args[0]
	optsArg := args[1]
	if fileArg.IsUndefined() || fileArg.IsNull() || fileArg.Get("length").Int() == 0 {
		return errResult("track file bytes are required")
	}

	fileBytes := make([]byte, fileArg.Get("length").Int())
	if n := js.CopyBytesToGo(fileBytes, fileArg); n == 0 {
		return errResult("failed to read track bytes from JS input")
	}

	name := getString(optsArg, "source_file_name", "input.gpx")
	points, err := decodeTrack(name, fileBytes)
	if err != nil {
		return errResult(err.Error())
	}
	if len(points) < 2 {
		return errResult(fmt.Sprintf("track has %d usable points, need at least 2", len(points)))
	}

	metrics := trailmetrics.ComputeMetrics(points)
	notes := trailmetrics.BuildRouteNotes(metrics, trailmetrics.InferAttributes(metrics))

	out := map[string]any{
		"ok":    true,
		"notes": notes,
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return errResult(fmt.Sprintf("encode metrics: %v", err))
	}
	out["metrics"] = string(metricsJSON)

	warnings := make([]string, 0, 2)

	if target := getFloat(optsArg, "target_minutes"); target > 0 {
		plan, err := raceplan.Plan(points, nil, target, getFloat(optsArg, "start_hour"), getFloat(optsArg, "fatigue_intensity"))
		if err != nil {
			warnings = append(warnings, "pacing plan unavailable: "+err.Error())
		} else if planJSON, err := json.Marshal(plan); err == nil {
			out["pacing_plan"] = string(planJSON)
		}
	}

	if index := getFloat(optsArg, "performance_index"); index > 0 {
		prediction, err := predict.Predict(metrics, index, predict.DefaultConfig())
		switch {
		case errors.Is(err, predict.ErrUnavailable):
			warnings = append(warnings, "prediction unavailable: "+err.Error())
		case err != nil:
			warnings = append(warnings, "prediction failed: "+err.Error())
		default:
			if predJSON, err := json.Marshal(prediction); err == nil {
				out["prediction"] = string(predJSON)
			}
		}
	}

	out["warnings"] = stringsToAny(warnings)
	return out
}

func decodeTrack(name string, data []byte) ([]trailmetrics.GeoPoint, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".fit"):
		return trackio.PointsFromFIT(bytes.NewReader(data))
	case strings.HasSuffix(lower, ".gpx"):
		return trackio.PointsFromGPX(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported track format %q (expected .fit or .gpx)", name)
	}
}

func errResult(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func getFloat(v js.Value, key string) float64 {
	if v.IsUndefined() || v.IsNull() {
		return 0
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeNumber {
		return 0
	}
	return out.Float()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
