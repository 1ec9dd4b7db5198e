package grouping

import (
	"fmt"
	"sync"
	"testing"

	"oldprague.photos/fotoatlas/internal/dataset"
)

func corpusRecord(xid, desc string, coord *dataset.Coordinate) *dataset.Record {
	return &dataset.Record{
		XID:         xid,
		Description: desc,
		Author:      "Eckert, Jindřich",
		DateLabel:   "1890",
		Coordinate:  coord,
	}
}

func TestDeriveMergeCascade(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		corpusRecord("X1", "k1", nil),
		corpusRecord("X2", "k2", nil),
		corpusRecord("X3", "k3", nil),
	}
	k1 := BaseKey(records[0])
	k2 := BaseKey(records[1])
	k3 := BaseKey(records[2])

	merges := []MergeDecision{
		{GroupA: k2, GroupB: k3, Verdict: VerdictSame},
		{GroupA: k1, GroupB: k2, Verdict: VerdictSame},
	}

	snap := Derive(records, merges, nil, nil)
	if snap.Stats.Groups != 1 {
		t.Fatalf("expected 1 group after cascade, got %d", snap.Stats.Groups)
	}
	// k1 < k2 < k3, so the whole class is represented by k1.
	if got := snap.Resolve(k3); got != k1 {
		t.Fatalf("Resolve(k3) = %q, expected %q", got, k1)
	}
	group, ok := snap.Group(k1)
	if !ok || len(group.Records) != 3 {
		t.Fatalf("merged group not found or wrong size")
	}
	if group, ok = snap.GroupOfRecord("X3"); !ok || group.Key != k1 {
		t.Fatalf("GroupOfRecord(X3) did not land in the merged group")
	}
}

func TestDeriveProjectsCorrectionsAcrossMerge(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		corpusRecord("X1", "k1", &dataset.Coordinate{Lat: 50.0, Lon: 14.0}),
		corpusRecord("X2", "k2", &dataset.Coordinate{Lat: 51.0, Lon: 15.0}),
	}
	k1 := BaseKey(records[0])
	k2 := BaseKey(records[1])

	merges := []MergeDecision{{GroupA: k1, GroupB: k2, Verdict: VerdictSame}}
	corrections := []Correction{
		{XID: "X2", Lat: f64(50.5), Lon: f64(14.5), HasCoordinates: true, Verdict: VerdictWrong},
	}

	snap := Derive(records, merges, corrections, nil)
	if snap.Stats.CorrectedRecords != 2 {
		t.Fatalf("corrected records = %d, expected 2", snap.Stats.CorrectedRecords)
	}
	for _, rec := range snap.Records {
		if rec.Coordinate == nil || rec.Coordinate.Lat != 50.5 || rec.Coordinate.Lon != 14.5 {
			t.Fatalf("record %s coordinate = %+v, expected 50.5,14.5", rec.XID, rec.Coordinate)
		}
		if !rec.Corrected {
			t.Fatalf("record %s not marked corrected", rec.XID)
		}
	}
}

func TestDeriveLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	original := corpusRecord("X1", "k1", &dataset.Coordinate{Lat: 50.0, Lon: 14.0})
	corrections := []Correction{
		{XID: "X1", Lat: f64(49.0), Lon: f64(13.0), HasCoordinates: true, Verdict: VerdictWrong},
	}

	Derive([]*dataset.Record{original}, nil, corrections, nil)
	if original.Coordinate.Lat != 50.0 || original.Corrected || original.BaseKey != "" {
		t.Fatalf("derivation mutated the input record: %+v", original)
	}
}

func TestDeriveCandidatesRespectDecisions(t *testing.T) {
	t.Parallel()

	shared := &dataset.Coordinate{Lat: 50.087465, Lon: 14.421254}
	records := []*dataset.Record{
		corpusRecord("X1", "k1", shared),
		corpusRecord("X2", "k2", shared),
	}
	k1 := BaseKey(records[0])
	k2 := BaseKey(records[1])

	snap := Derive(records, nil, nil, nil)
	if snap.Stats.Candidates != 1 {
		t.Fatalf("expected 1 candidate before any decision, got %d", snap.Stats.Candidates)
	}

	// A "different" verdict removes the pair but keeps both groups.
	snap = Derive(records, []MergeDecision{{GroupA: k2, GroupB: k1, Verdict: VerdictDifferent}}, nil, nil)
	if snap.Stats.Candidates != 0 {
		t.Fatalf("decided pair still a candidate")
	}
	if snap.Stats.Groups != 2 {
		t.Fatalf("different verdict changed group count: %d", snap.Stats.Groups)
	}
	if !snap.Decided(k1, k2) || !snap.Decided(k2, k1) {
		t.Fatalf("Decided not orientation-agnostic")
	}
}

func TestSnapshotReadsAreConcurrencySafe(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		corpusRecord("X1", "k1", &dataset.Coordinate{Lat: 50.0, Lon: 14.0}),
		corpusRecord("X2", "k2", nil),
	}
	k1 := BaseKey(records[0])
	k2 := BaseKey(records[1])
	merges := []MergeDecision{{GroupA: k1, GroupB: k2, Verdict: VerdictSame}}
	corrections := []Correction{
		{XID: "X1", Lat: f64(50.5), Lon: f64(14.5), HasCoordinates: true, Verdict: VerdictWrong},
	}

	snap := Derive(records, merges, corrections, nil)

	// Lookups with unseen keys must stay pure reads, or parallel request
	// handlers sharing the snapshot corrupt it.
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				unseen := fmt.Sprintf("unseen-%d-%d", worker, i)
				if got := snap.Resolve(unseen); got != unseen {
					t.Errorf("Resolve(%q) = %q, expected the key itself", unseen, got)
					return
				}
				if got := snap.Resolve(k2); got != k1 {
					t.Errorf("Resolve(k2) = %q, expected %q", got, k1)
					return
				}
				if _, ok := snap.GroupOfRecord("X2"); !ok {
					t.Errorf("GroupOfRecord(X2) lost the merged group")
					return
				}
				if summaries := snap.CorrectionSummaries(); len(summaries) != 1 {
					t.Errorf("correction summaries = %d, expected 1", len(summaries))
					return
				}
			}
		}(worker)
	}
	wg.Wait()
}

func TestDeriveSkipsAnonymousRecords(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		corpusRecord("X1", "k1", nil),
		{Description: "no identifier"},
		nil,
	}

	snap := Derive(records, nil, nil, nil)
	if snap.Stats.Records != 1 {
		t.Fatalf("expected 1 usable record, got %d", snap.Stats.Records)
	}
}
