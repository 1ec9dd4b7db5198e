package grouping

import (
	"strings"

	"oldprague.photos/fotoatlas/internal/dataset"
)

// keySeparator joins key segments. The unit separator never occurs in
// archival text fields, so joined keys stay injective; a printable separator
// would risk silent collisions.
const keySeparator = "\x1f"

// BaseKey derives the metadata grouping key for a record: two records with
// identical description, author and date label belong to the same series.
// Records lacking all three fields key on their own external identifier so
// they form singleton groups instead of one giant empty-metadata bucket.
func BaseKey(rec *dataset.Record) string {
	if rec == nil {
		return ""
	}
	if rec.Description == "" && rec.Author == "" && rec.DateLabel == "" {
		return rec.XID
	}
	return rec.Description + keySeparator + rec.Author + keySeparator + rec.DateLabel
}

// BaseKeyIndex maps external identifiers to base keys for the whole corpus.
func BaseKeyIndex(records []*dataset.Record) map[string]string {
	index := make(map[string]string, len(records))
	for _, rec := range records {
		if rec == nil || rec.XID == "" {
			continue
		}
		index[rec.XID] = BaseKey(rec)
	}
	return index
}

// Pair is an unordered pair of group keys, stored with A < B.
type Pair struct {
	A string `json:"group_a"`
	B string `json:"group_b"`
}

// NewPair normalizes the orientation of two group keys. ok is false when the
// keys cannot form a reviewable pair (either empty, or equal).
func NewPair(a, b string) (Pair, bool) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" || a == b {
		return Pair{}, false
	}
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}, true
}

// Key is the canonical identity of the pair, equal for both orientations.
func (p Pair) Key() string {
	return p.A + keySeparator + p.B
}
