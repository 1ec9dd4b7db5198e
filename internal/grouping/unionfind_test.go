package grouping

import (
	"math/rand"
	"testing"
)

func TestResolverUnionSmallestRootWins(t *testing.T) {
	t.Parallel()

	r := NewResolver([]string{"a", "b", "c"})
	r.Union("b", "c")
	if got := r.Find("c"); got != "b" {
		t.Fatalf("expected root b, got %q", got)
	}

	r.Union("c", "a")
	for _, key := range []string{"a", "b", "c"} {
		if got := r.Find(key); got != "a" {
			t.Fatalf("Find(%q) = %q, expected a", key, got)
		}
	}
}

func TestResolverUnionIdempotent(t *testing.T) {
	t.Parallel()

	r := NewResolver([]string{"a", "b"})
	r.Union("a", "b")
	r.Union("a", "b")
	r.Union("b", "a")

	if got := r.Find("b"); got != "a" {
		t.Fatalf("Find(b) = %q, expected a", got)
	}
	if r.Size() != 2 {
		t.Fatalf("Size() = %d, expected 2", r.Size())
	}
}

func TestResolverFindRegistersUnknownKeys(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil)
	if got := r.Find("ghost"); got != "ghost" {
		t.Fatalf("Find(ghost) = %q, expected ghost", got)
	}
	if r.Size() != 1 {
		t.Fatalf("Size() = %d, expected 1", r.Size())
	}
}

func TestResolverCanonicalCoversEveryKey(t *testing.T) {
	t.Parallel()

	r := BuildResolver([]string{"a", "b", "c", "d"}, []MergeDecision{
		{GroupA: "b", GroupB: "c", Verdict: VerdictSame},
		{GroupA: "a", GroupB: "b", Verdict: VerdictSame},
	})
	canonical := r.Canonical()
	if len(canonical) != 4 {
		t.Fatalf("canonical map has %d keys, expected 4", len(canonical))
	}
	for _, key := range []string{"a", "b", "c"} {
		if canonical[key] != "a" {
			t.Fatalf("canonical[%q] = %q, expected a", key, canonical[key])
		}
	}
	if canonical["d"] != "d" {
		t.Fatalf("canonical[d] = %q, expected d", canonical["d"])
	}
}

func TestBuildResolverIgnoresDifferentVerdicts(t *testing.T) {
	t.Parallel()

	r := BuildResolver([]string{"a", "b"}, []MergeDecision{
		{GroupA: "a", GroupB: "b", Verdict: VerdictDifferent},
	})
	if got := r.Find("b"); got != "b" {
		t.Fatalf("Find(b) = %q, expected b (different must not merge)", got)
	}

	// A later disagreement does not undo a completed merge.
	r = BuildResolver([]string{"a", "b"}, []MergeDecision{
		{GroupA: "a", GroupB: "b", Verdict: VerdictSame},
		{GroupA: "a", GroupB: "b", Verdict: VerdictDifferent},
	})
	if got := r.Find("b"); got != "a" {
		t.Fatalf("Find(b) = %q, expected a (merge must survive)", got)
	}
}

func TestBuildResolverOrderIndependent(t *testing.T) {
	t.Parallel()

	universe := []string{"k1", "k2", "k3", "k4", "k5"}
	decisions := []MergeDecision{
		{GroupA: "k3", GroupB: "k5", Verdict: VerdictSame},
		{GroupA: "k1", GroupB: "k2", Verdict: VerdictSame},
		{GroupA: "k2", GroupB: "k3", Verdict: VerdictSame},
	}

	reference := BuildResolver(universe, decisions)
	want := make(map[string]string, len(universe))
	for _, key := range universe {
		want[key] = reference.Find(key)
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := append([]MergeDecision(nil), decisions...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		r := BuildResolver(universe, shuffled)
		for _, key := range universe {
			if got := r.Find(key); got != want[key] {
				t.Fatalf("trial %d: Find(%q) = %q, expected %q", trial, key, got, want[key])
			}
		}
	}
}

func TestBuildResolverPartitionInvariant(t *testing.T) {
	t.Parallel()

	universe := []string{"a", "b", "c", "d"}
	r := BuildResolver(universe, []MergeDecision{
		{GroupA: "c", GroupB: "d", Verdict: VerdictSame},
	})

	// Every key resolves to exactly one representative, and representatives
	// resolve to themselves.
	for _, key := range universe {
		root := r.Find(key)
		if r.Find(root) != root {
			t.Fatalf("representative %q does not resolve to itself", root)
		}
	}
	if r.Find("a") == r.Find("c") {
		t.Fatalf("unrelated classes collapsed")
	}
}
