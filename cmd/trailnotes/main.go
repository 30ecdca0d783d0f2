package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	trailmetrics "github.com/lucasjlepore/trail-metrics"
	"github.com/lucasjlepore/trail-metrics/trackio"
)

func main() {
	var (
		jsonOut = flag.Bool("json", false, "Emit track metrics as JSON instead of route notes")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-gpx-or-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	points, err := trackio.LoadTrack(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load track failed: %v\n", err)
		os.Exit(1)
	}
	if len(points) < 2 {
		fmt.Fprintf(os.Stderr, "track has %d usable points, need at least 2\n", len(points))
		os.Exit(1)
	}

	metrics := trailmetrics.ComputeMetrics(points)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(trailmetrics.BuildRouteNotes(metrics, trailmetrics.InferAttributes(metrics)))
}
