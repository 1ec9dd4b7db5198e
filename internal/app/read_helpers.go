package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"oldprague.photos/fotoatlas/internal/cli"
	"oldprague.photos/fotoatlas/internal/config"
	"oldprague.photos/fotoatlas/internal/dataset"
	"oldprague.photos/fotoatlas/internal/db"
	"oldprague.photos/fotoatlas/internal/grouping"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func truncateForTable(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen <= 0 {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}

	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func formatUTCTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func connectReadPool(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *config.Config, *db.Pool, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return ctx, cancel, cfg, pool, nil
}

// loadCorpus reads the GeoJSON corpus and the optional similarity hints file,
// honoring flag overrides over the configured paths.
func loadCorpus(cfg *config.Config, datasetPath, hintsPath string) ([]*dataset.Record, []grouping.Pair, dataset.LoadStats, error) {
	path := strings.TrimSpace(datasetPath)
	if path == "" {
		path = cfg.DatasetPath
	}

	records, stats, err := dataset.LoadFile(path)
	if err != nil {
		return nil, nil, dataset.LoadStats{}, err
	}

	hintsFile := strings.TrimSpace(hintsPath)
	if hintsFile == "" {
		hintsFile = strings.TrimSpace(cfg.SimilarityHintsPath)
	}

	var hints []grouping.Pair
	if hintsFile != "" {
		hints, err = grouping.LoadHints(hintsFile)
		if err != nil {
			return nil, nil, dataset.LoadStats{}, err
		}
	}

	return records, hints, stats, nil
}

// deriveSnapshot runs the full pipeline against the current corpus and log.
func deriveSnapshot(ctx context.Context, pool *db.Pool, cfg *config.Config, datasetPath, hintsPath string) (*grouping.Snapshot, dataset.LoadStats, error) {
	records, hints, stats, err := loadCorpus(cfg, datasetPath, hintsPath)
	if err != nil {
		return nil, dataset.LoadStats{}, err
	}

	mergeRows, err := pool.ListMergeDecisions(ctx)
	if err != nil {
		return nil, dataset.LoadStats{}, fmt.Errorf("list merge decisions: %w", err)
	}
	correctionRows, err := pool.ListCorrections(ctx)
	if err != nil {
		return nil, dataset.LoadStats{}, fmt.Errorf("list corrections: %w", err)
	}

	merges := make([]grouping.MergeDecision, 0, len(mergeRows))
	for _, row := range mergeRows {
		merges = append(merges, grouping.MergeDecision{
			GroupA:  row.GroupA,
			GroupB:  row.GroupB,
			Verdict: row.Verdict,
		})
	}
	corrections := make([]grouping.Correction, 0, len(correctionRows))
	for _, row := range correctionRows {
		corrections = append(corrections, grouping.Correction{
			XID:            row.XID,
			GroupKey:       derefString(row.GroupKey),
			Lat:            row.Lat,
			Lon:            row.Lon,
			HasCoordinates: row.HasCoordinates,
			Verdict:        row.Verdict,
			Message:        row.Message,
		})
	}

	return grouping.Derive(records, merges, corrections, hints), stats, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
