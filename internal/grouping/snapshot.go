package grouping

import (
	"oldprague.photos/fotoatlas/internal/dataset"
)

// Stats summarizes one derivation pass.
type Stats struct {
	Records          int `json:"records"`
	Groups           int `json:"groups"`
	Candidates       int `json:"candidates"`
	MergeDecisions   int `json:"merge_decisions"`
	Corrections      int `json:"corrections"`
	CorrectedRecords int `json:"corrected_records"`
}

// Snapshot is the immutable derived state of one session: resolver, groups
// and candidate pool computed from a single consistent read of the corpus
// and the decision log. It is rebuilt whole after every accepted decision
// and never patched in place.
type Snapshot struct {
	Records     []*dataset.Record
	Groups      []*Group
	Candidates  []Pair
	Stats       Stats
	Merges      []MergeDecision
	Corrections []Correction

	canonical    map[string]string
	summaries    []CorrectionSummary
	groupsByKey  map[string]*Group
	baseKeyByXID map[string]string
	decided      map[string]struct{}
}

// Derive runs the full three-stage pipeline over one consistent pair of
// snapshots: raw records are key-annotated, historical corrections are
// projected through the merge-resolved keys, and the corrected set is
// partitioned into groups and candidate pairs. The input record slice is not
// mutated; derivation works on copies so a pristine corpus can be re-derived
// against a fresh log at any time.
func Derive(records []*dataset.Record, merges []MergeDecision, corrections []Correction, hints []Pair) *Snapshot {
	working := make([]*dataset.Record, 0, len(records))
	universe := make([]string, 0, len(records))
	for _, rec := range records {
		if rec == nil || rec.XID == "" {
			continue
		}
		clone := *rec
		if rec.Coordinate != nil {
			coord := *rec.Coordinate
			clone.Coordinate = &coord
		}
		clone.BaseKey = BaseKey(&clone)
		clone.Corrected = false
		clone.CanonicalKey = ""
		working = append(working, &clone)
		universe = append(universe, clone.BaseKey)
	}

	baseKeyByXID := BaseKeyIndex(working)
	resolver := BuildResolver(universe, merges)
	corrected := ProjectCorrections(working, corrections, baseKeyByXID, resolver)
	groups := BuildGroups(working, resolver)
	decided := DecidedPairs(merges)
	candidates := BuildCandidates(groups, hints, decided)

	groupsByKey := make(map[string]*Group, len(groups))
	for _, group := range groups {
		groupsByKey[group.Key] = group
	}

	// The resolver mutates on every Find, so it never leaves this function.
	// Everything the snapshot serves afterwards reads from the frozen
	// canonical map computed here.
	canonical := resolver.Canonical()
	summaries := SummarizeCorrections(corrections, baseKeyByXID, resolver)

	return &Snapshot{
		Records:      working,
		Groups:       groups,
		Candidates:   candidates,
		Merges:       merges,
		Corrections:  corrections,
		canonical:    canonical,
		summaries:    summaries,
		groupsByKey:  groupsByKey,
		baseKeyByXID: baseKeyByXID,
		decided:      decided,
		Stats: Stats{
			Records:          len(working),
			Groups:           len(groups),
			Candidates:       len(candidates),
			MergeDecisions:   len(merges),
			Corrections:      len(corrections),
			CorrectedRecords: corrected,
		},
	}
}

// Resolve maps a base group key to its canonical representative. Total over
// the session: unknown keys resolve to themselves. Safe for concurrent use;
// lookups never write back into the snapshot.
func (s *Snapshot) Resolve(baseKey string) string {
	if root, ok := s.canonical[baseKey]; ok {
		return root
	}
	return baseKey
}

// Group looks up a group by canonical key.
func (s *Snapshot) Group(key string) (*Group, bool) {
	group, ok := s.groupsByKey[key]
	return group, ok
}

// GroupOfRecord looks up the group a record identifier resolved into.
func (s *Snapshot) GroupOfRecord(xid string) (*Group, bool) {
	baseKey, ok := s.baseKeyByXID[xid]
	if !ok {
		return nil, false
	}
	return s.Group(s.Resolve(baseKey))
}

// Decided reports whether any verdict exists for the pair, in either
// orientation.
func (s *Snapshot) Decided(a, b string) bool {
	pair, ok := NewPair(a, b)
	if !ok {
		return false
	}
	_, ruled := s.decided[pair.Key()]
	return ruled
}

// NewQueue starts a review sitting over this snapshot's candidate pool.
func (s *Snapshot) NewQueue(seed int64) *CandidateQueue {
	return NewCandidateQueue(s.Candidates, seed)
}

// MergeSummaries returns the latest authoritative decision per pair.
func (s *Snapshot) MergeSummaries() []MergeDecision {
	return LatestMergeDecisions(s.Merges)
}

// CorrectionSummaries returns the latest authoritative correction per group,
// computed once at derivation time.
func (s *Snapshot) CorrectionSummaries() []CorrectionSummary {
	return s.summaries
}
