package dataset

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadStats reports what the corpus loader kept and what it tolerated.
type LoadStats struct {
	Features int
	Loaded   int
	Skipped  int
}

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Load parses a GeoJSON FeatureCollection into domain records. Features that
// fail validation or lack an identifier are skipped and counted, never fatal;
// the corpus is an externally produced file and may contain noise. An
// unreadable or structurally broken file is a real error.
func Load(payload []byte) ([]*Record, LoadStats, error) {
	var collection featureCollection
	if err := json.Unmarshal(payload, &collection); err != nil {
		return nil, LoadStats{}, fmt.Errorf("decode feature collection: %w", err)
	}
	if collection.Type != "FeatureCollection" {
		return nil, LoadStats{}, fmt.Errorf("unexpected GeoJSON type %q", collection.Type)
	}

	stats := LoadStats{Features: len(collection.Features)}
	records := make([]*Record, 0, len(collection.Features))
	for _, raw := range collection.Features {
		rec, err := ParseFeature(raw)
		if err != nil || rec == nil {
			stats.Skipped++
			continue
		}
		records = append(records, rec)
		stats.Loaded++
	}

	return records, stats, nil
}

// LoadFile reads and parses the corpus file at path.
func LoadFile(path string) ([]*Record, LoadStats, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return Load(payload)
}
