package grouping

import (
	"testing"

	"oldprague.photos/fotoatlas/internal/dataset"
)

func TestBuildGroupsPartitionsByCanonicalKey(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		{XID: "X1", BaseKey: "k1"},
		{XID: "X2", BaseKey: "k2"},
		{XID: "X3", BaseKey: "k3"},
	}
	resolver := NewResolver([]string{"k1", "k2", "k3"})
	resolver.Union("k1", "k2")

	groups := BuildGroups(records, resolver)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	// Keys come back sorted; the merged class is represented by the
	// smallest key.
	if groups[0].Key != "k1" || len(groups[0].Records) != 2 {
		t.Fatalf("merged group wrong: key=%q size=%d", groups[0].Key, len(groups[0].Records))
	}
	if records[1].CanonicalKey != "k1" {
		t.Fatalf("member not annotated with canonical key: %q", records[1].CanonicalKey)
	}
}

func TestBuildGroupsMemberOrderBySignature(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		{XID: "X2", BaseKey: "k", Signature: "sign. II 200"},
		{XID: "X1", BaseKey: "k", Signature: "sign. I 100"},
		{XID: "X3", BaseKey: "k", Signature: "Sign. I 100"},
	}
	resolver := NewResolver([]string{"k"})

	groups := BuildGroups(records, resolver)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	members := groups[0].Records
	// Cleaned signatures order first; equal signatures tie-break on XID.
	if members[0].XID != "X1" || members[1].XID != "X3" || members[2].XID != "X2" {
		t.Fatalf("unexpected member order: %s, %s, %s", members[0].XID, members[1].XID, members[2].XID)
	}
	if groups[0].Primary != members[0] {
		t.Fatalf("primary is not the first member")
	}
}

func TestBuildGroupsPrimaryCarriesCoordinate(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		{XID: "X1", BaseKey: "k", Coordinate: &dataset.Coordinate{Lat: 50.08, Lon: 14.42}, Corrected: true},
		{XID: "X2", BaseKey: "k"},
	}
	resolver := NewResolver([]string{"k"})

	groups := BuildGroups(records, resolver)
	group := groups[0]
	if group.Coordinate == nil || group.Coordinate.Lat != 50.08 {
		t.Fatalf("group coordinate not taken from primary: %+v", group.Coordinate)
	}
	if !group.Corrected {
		t.Fatalf("corrected flag not propagated from primary")
	}
}

func TestBuildGroupsSkipsUnkeyedRecords(t *testing.T) {
	t.Parallel()

	records := []*dataset.Record{
		{XID: "X1", BaseKey: "k"},
		{XID: "", BaseKey: "k"},
		{XID: "X3", BaseKey: ""},
		nil,
	}
	resolver := NewResolver([]string{"k"})

	groups := BuildGroups(records, resolver)
	if len(groups) != 1 || len(groups[0].Records) != 1 {
		t.Fatalf("anomalous records leaked into groups: %+v", groups)
	}
}
