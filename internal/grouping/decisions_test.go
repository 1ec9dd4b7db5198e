package grouping

import "testing"

func TestLatestMergeDecisionsPerPair(t *testing.T) {
	t.Parallel()

	decisions := []MergeDecision{
		{GroupA: "a", GroupB: "b", Verdict: VerdictSame},
		{GroupA: "c", GroupB: "d", Verdict: VerdictDifferent},
		{GroupA: "b", GroupB: "a", Verdict: VerdictDifferent}, // reversed orientation
	}

	latest := LatestMergeDecisions(decisions)
	if len(latest) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(latest))
	}
	// First-seen order is preserved; the newer verdict wins.
	if latest[0].GroupA != "a" || latest[0].GroupB != "b" || latest[0].Verdict != VerdictDifferent {
		t.Fatalf("unexpected first entry: %+v", latest[0])
	}
	if latest[1].GroupA != "c" || latest[1].GroupB != "d" {
		t.Fatalf("unexpected second entry: %+v", latest[1])
	}
}

func TestLatestMergeDecisionsSkipsMalformed(t *testing.T) {
	t.Parallel()

	decisions := []MergeDecision{
		{GroupA: "a", GroupB: "a", Verdict: VerdictSame},
		{GroupA: "", GroupB: "b", Verdict: VerdictSame},
		{GroupA: "a", GroupB: "b", Verdict: "maybe"},
	}
	if latest := LatestMergeDecisions(decisions); len(latest) != 0 {
		t.Fatalf("malformed rows survived: %v", latest)
	}
}

func TestDecidedPairsAnyVerdict(t *testing.T) {
	t.Parallel()

	decided := DecidedPairs([]MergeDecision{
		{GroupA: "a", GroupB: "b", Verdict: VerdictSame},
		{GroupA: "d", GroupB: "c", Verdict: VerdictDifferent},
	})
	if len(decided) != 2 {
		t.Fatalf("expected 2 decided pairs, got %d", len(decided))
	}

	pair, _ := NewPair("c", "d")
	if _, ok := decided[pair.Key()]; !ok {
		t.Fatalf("reversed-orientation decision not normalized")
	}
}
