package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"oldprague.photos/fotoatlas/internal/cli"
)

func runDerive(args []string) int {
	fs := flag.NewFlagSet("derive", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	datasetPath := fs.String("dataset", "", "GeoJSON corpus path (defaults to DATASET_PATH)")
	hintsPath := fs.String("hints", "", "Similarity hints path (defaults to SIMILARITY_HINTS_PATH)")
	formatFlag := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 60*time.Second, "Overall timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	format, err := parseOutputFormat(*formatFlag, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel, cfg, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	snap, loadStats, err := deriveSnapshot(ctx, pool, cfg, *datasetPath, *hintsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Derivation failed: %v\n", err)
		return 1
	}

	if format == outputFormatJSON {
		payload := map[string]any{
			"load": map[string]int{
				"features": loadStats.Features,
				"loaded":   loadStats.Loaded,
				"skipped":  loadStats.Skipped,
			},
			"derivation": snap.Stats,
		}
		if err := printJSON(payload); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"features", strconv.Itoa(loadStats.Features)},
		{"loaded", strconv.Itoa(loadStats.Loaded)},
		{"skipped", strconv.Itoa(loadStats.Skipped)},
		{"groups", strconv.Itoa(snap.Stats.Groups)},
		{"candidates", strconv.Itoa(snap.Stats.Candidates)},
		{"merge_decisions", strconv.Itoa(snap.Stats.MergeDecisions)},
		{"corrections", strconv.Itoa(snap.Stats.Corrections)},
		{"corrected_records", strconv.Itoa(snap.Stats.CorrectedRecords)},
	}
	if err := writeTable([]string{"METRIC", "VALUE"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}
