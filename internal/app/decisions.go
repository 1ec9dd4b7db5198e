package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"oldprague.photos/fotoatlas/internal/cli"
)

func runDecisions(args []string) int {
	fs := flag.NewFlagSet("decisions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	kindFlag := fs.String("kind", "merges", "Log to list: merges or corrections")
	limit := fs.Int("limit", 50, "Maximum rows to list (newest last)")
	formatFlag := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall timeout")

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
	kind := strings.TrimSpace(strings.ToLower(*kindFlag))
	if kind != "merges" && kind != "corrections" {
		fmt.Fprintln(os.Stderr, "--kind must be merges or corrections")
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be positive")
		return 2
	}

	ctx, cancel, _, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	if kind == "merges" {
		rows, err := pool.ListMergeDecisions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list merge decisions: %v\n", err)
			return 1
		}
		if len(rows) > *limit {
			rows = rows[len(rows)-*limit:]
		}

		if format == outputFormatJSON {
			if err := printJSON(rows); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
				return 1
			}
			return 0
		}

		tableRows := make([][]string, 0, len(rows))
		for _, row := range rows {
			tableRows = append(tableRows, []string{
				strconv.FormatInt(row.ID, 10),
				truncateForTable(row.GroupA, 45),
				truncateForTable(row.GroupB, 45),
				row.Verdict,
				formatUTCTimestamp(row.ReceivedAt),
			})
		}
		if err := writeTable([]string{"ID", "GROUP A", "GROUP B", "VERDICT", "RECEIVED"}, tableRows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
			return 1
		}
		return 0
	}

	rows, err := pool.ListCorrections(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list corrections: %v\n", err)
		return 1
	}
	if len(rows) > *limit {
		rows = rows[len(rows)-*limit:]
	}

	if format == outputFormatJSON {
		if err := printJSON(rows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		coord := ""
		if row.HasCoordinates && row.Lat != nil && row.Lon != nil {
			coord = fmt.Sprintf("%.6f,%.6f", *row.Lat, *row.Lon)
		}
		tableRows = append(tableRows, []string{
			strconv.FormatInt(row.ID, 10),
			row.XID,
			row.Verdict,
			coord,
			truncateForTable(row.Message, 40),
			formatUTCTimestamp(row.ReceivedAt),
		})
	}
	if err := writeTable([]string{"ID", "XID", "VERDICT", "COORDINATE", "MESSAGE", "RECEIVED"}, tableRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		return 1
	}
	return 0
}
