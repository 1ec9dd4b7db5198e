package grouping

// Merge and correction verdicts as stored in the decision log.
const (
	VerdictSame      = "same"
	VerdictDifferent = "different"

	VerdictOK    = "ok"
	VerdictWrong = "wrong"
	VerdictFlag  = "flag"
)

// MergeDecision is one historical merge verdict, in log append order.
type MergeDecision struct {
	GroupA  string `json:"group_a"`
	GroupB  string `json:"group_b"`
	Verdict string `json:"verdict"`
}

// Correction is one historical position correction or status flag,
// in log append order.
type Correction struct {
	XID            string   `json:"xid"`
	GroupKey       string   `json:"group_key,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	HasCoordinates bool     `json:"has_coordinates"`
	Verdict        string   `json:"verdict"`
	Message        string   `json:"message,omitempty"`
}

// isUsableMerge reports whether a historical merge row is well formed. The
// log is an external append-only store and may contain malformed rows; they
// are tolerated, never fatal.
func isUsableMerge(d MergeDecision) bool {
	if d.GroupA == "" || d.GroupB == "" || d.GroupA == d.GroupB {
		return false
	}
	return d.Verdict == VerdictSame || d.Verdict == VerdictDifferent
}

// LatestMergeDecisions reduces the full log to the most recent decision per
// unordered pair. Only the latest verdict is authoritative for display;
// older rows remain in the log untouched.
func LatestMergeDecisions(decisions []MergeDecision) []MergeDecision {
	latestByPair := make(map[string]int, len(decisions))
	order := make([]string, 0, len(decisions))
	kept := make(map[string]MergeDecision, len(decisions))

	for i, d := range decisions {
		if !isUsableMerge(d) {
			continue
		}
		pair, ok := NewPair(d.GroupA, d.GroupB)
		if !ok {
			continue
		}
		key := pair.Key()
		if _, seen := latestByPair[key]; !seen {
			order = append(order, key)
		}
		latestByPair[key] = i
		kept[key] = MergeDecision{GroupA: pair.A, GroupB: pair.B, Verdict: d.Verdict}
	}

	result := make([]MergeDecision, 0, len(order))
	for _, key := range order {
		result = append(result, kept[key])
	}
	return result
}

// DecidedPairs collects the pair keys of every usable decision, regardless
// of verdict. A pair a human has ruled on is never re-surfaced for review.
func DecidedPairs(decisions []MergeDecision) map[string]struct{} {
	decided := make(map[string]struct{}, len(decisions))
	for _, d := range decisions {
		if !isUsableMerge(d) {
			continue
		}
		if pair, ok := NewPair(d.GroupA, d.GroupB); ok {
			decided[pair.Key()] = struct{}{}
		}
	}
	return decided
}
