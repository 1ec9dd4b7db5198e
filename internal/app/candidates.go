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

func runCandidates(args []string) int {
	fs := flag.NewFlagSet("candidates", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	datasetPath := fs.String("dataset", "", "GeoJSON corpus path (defaults to DATASET_PATH)")
	hintsPath := fs.String("hints", "", "Similarity hints path (defaults to SIMILARITY_HINTS_PATH)")
	limit := fs.Int("limit", 25, "Maximum candidate pairs to list")
	shuffleSeed := fs.Int64("shuffle", 0, "Shuffle with the given seed instead of listing in key order")
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
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be positive")
		return 2
	}

	ctx, cancel, cfg, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	snap, _, err := deriveSnapshot(ctx, pool, cfg, *datasetPath, *hintsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Derivation failed: %v\n", err)
		return 1
	}

	pairs := snap.Candidates
	if *shuffleSeed != 0 {
		queue := snap.NewQueue(*shuffleSeed)
		pairs = pairs[:0:0]
		for len(pairs) < queue.Total() {
			pair, ok := queue.Next()
			if !ok {
				break
			}
			pairs = append(pairs, pair)
		}
	}
	if len(pairs) > *limit {
		pairs = pairs[:*limit]
	}

	if format == outputFormatJSON {
		if err := printJSON(map[string]any{
			"total": snap.Stats.Candidates,
			"items": pairs,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		sizeA, sizeB := "", ""
		if group, ok := snap.Group(pair.A); ok {
			sizeA = strconv.Itoa(len(group.Records))
		}
		if group, ok := snap.Group(pair.B); ok {
			sizeB = strconv.Itoa(len(group.Records))
		}
		rows = append(rows, []string{
			truncateForTable(pair.A, 50),
			sizeA,
			truncateForTable(pair.B, 50),
			sizeB,
		})
	}
	if err := writeTable([]string{"GROUP A", "PHOTOS", "GROUP B", "PHOTOS"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	fmt.Printf("\n%d of %d candidate pairs\n", len(pairs), snap.Stats.Candidates)
	return 0
}
