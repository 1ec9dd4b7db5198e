package grouping

import (
	"encoding/json"
	"fmt"
	"os"
)

type rawHint struct {
	GroupA string `json:"group_a"`
	GroupB string `json:"group_b"`
}

// LoadHints reads externally produced similarity hints: a JSON array of
// group-key pairs suggested by the visual-similarity tool. Malformed entries
// are dropped; the hint file is advisory input, not a contract.
func LoadHints(path string) ([]Pair, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read similarity hints %s: %w", path, err)
	}

	var raw []rawHint
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode similarity hints: %w", err)
	}

	hints := make([]Pair, 0, len(raw))
	for _, entry := range raw {
		if pair, ok := NewPair(entry.GroupA, entry.GroupB); ok {
			hints = append(hints, pair)
		}
	}
	return hints, nil
}
