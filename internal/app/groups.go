package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"oldprague.photos/fotoatlas/internal/cli"
	"oldprague.photos/fotoatlas/internal/grouping"
)

func runGroups(args []string) int {
	fs := flag.NewFlagSet("groups", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	datasetPath := fs.String("dataset", "", "GeoJSON corpus path (defaults to DATASET_PATH)")
	hintsPath := fs.String("hints", "", "Similarity hints path (defaults to SIMILARITY_HINTS_PATH)")
	key := fs.String("key", "", "Show one group by key or by member identifier")
	limit := fs.Int("limit", 25, "Maximum groups to list")
	minSize := fs.Int("min-size", 1, "Only list groups with at least this many photos")
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

	if *key != "" {
		return printGroupDetail(snap, *key, format)
	}

	selected := make([]*grouping.Group, 0, *limit)
	for _, group := range snap.Groups {
		if len(group.Records) < *minSize {
			continue
		}
		selected = append(selected, group)
		if len(selected) >= *limit {
			break
		}
	}

	if format == outputFormatJSON {
		if err := printJSON(selected); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(selected))
	for _, group := range selected {
		coord := ""
		if group.Coordinate != nil {
			coord = fmt.Sprintf("%.6f,%.6f", group.Coordinate.Lat, group.Coordinate.Lon)
		}
		rows = append(rows, []string{
			truncateForTable(group.Key, 60),
			strconv.Itoa(len(group.Records)),
			group.Primary.XID,
			coord,
			strconv.FormatBool(group.Corrected),
		})
	}
	if err := writeTable([]string{"KEY", "PHOTOS", "PRIMARY", "COORDINATE", "CORRECTED"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}

func printGroupDetail(snap *grouping.Snapshot, key, format string) int {
	group, ok := snap.Group(snap.Resolve(key))
	if !ok {
		group, ok = snap.GroupOfRecord(key)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Group not found: %s\n", key)
		return 1
	}

	if format == outputFormatJSON {
		if err := printJSON(group); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf("key: %s\n", group.Key)
	fmt.Printf("photos: %d\n", len(group.Records))
	if group.Coordinate != nil {
		fmt.Printf("coordinate: %.6f,%.6f (corrected=%t)\n", group.Coordinate.Lat, group.Coordinate.Lon, group.Corrected)
	}
	fmt.Println()

	rows := make([][]string, 0, len(group.Records))
	for _, rec := range group.Records {
		rows = append(rows, []string{
			rec.XID,
			truncateForTable(rec.Description, 50),
			truncateForTable(rec.Author, 25),
			truncateForTable(rec.DateLabel, 20),
			truncateForTable(rec.Signature, 20),
		})
	}
	if err := writeTable([]string{"XID", "DESCRIPTION", "AUTHOR", "DATE", "SIGNATURE"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}
