package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/trail-metrics/trackexport"
	"github.com/lucasjlepore/trail-metrics/trackio"
)

func main() {
	var (
		outDir     = flag.String("out-dir", "", "Output directory for manifest.json and points.jsonl")
		overwrite  = flag.Bool("overwrite", true, "Allow writing to non-empty output directories")
		copySource = flag.Bool("copy-source", true, "Copy the original track file into the export directory")
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-gpx-or-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	inputPath := flag.Arg(0)
	if strings.TrimSpace(*outDir) == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		*outDir = filepath.Join(".", "exports", base+"_"+trackexport.ExportFormatVersion)
	}

	points, err := trackio.LoadTrack(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load track failed: %v\n", err)
		os.Exit(1)
	}

	result, err := trackexport.ExportPoints(inputPath, points, *outDir, trackexport.ExportOptions{
		Overwrite:      *overwrite,
		CopySourceFile: *copySource,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Export complete\n")
	fmt.Printf("Output dir: %s\n", result.OutputDir)
	fmt.Printf("Manifest:   %s\n", result.ManifestPath)
	fmt.Printf("Points:     %s (%d points)\n", result.PointsPath, result.PointCount)
	if result.SourceCopyPath != "" {
		fmt.Printf("Source:     %s\n", result.SourceCopyPath)
	}
	fmt.Printf("SHA-256:    %s (%d bytes)\n", result.SourceSHA256, result.SourceSizeBytes)
}
