package grouping

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"oldprague.photos/fotoatlas/internal/dataset"
)

// Group is the derived aggregate of all records sharing a canonical key.
// Primary is the deterministically elected cover record; the group's
// coordinate and corrected flag are taken from it.
type Group struct {
	Key        string
	Records    []*dataset.Record
	Primary    *dataset.Record
	Coordinate *dataset.Coordinate
	Corrected  bool
}

// BuildGroups partitions key-annotated, correction-projected records into
// groups by canonical key and elects a primary per group. Member ordering is
// locale-aware on the cleaned signature with the external identifier as the
// tie-breaker, so the election is stable across runs; which record fronts a
// group is user-visible and must not flap.
func BuildGroups(records []*dataset.Record, resolver *Resolver) []*Group {
	byKey := make(map[string][]*dataset.Record)
	keys := make([]string, 0)

	for _, rec := range records {
		if rec == nil || rec.XID == "" || rec.BaseKey == "" {
			continue
		}
		rec.CanonicalKey = resolver.Find(rec.BaseKey)
		if _, seen := byKey[rec.CanonicalKey]; !seen {
			keys = append(keys, rec.CanonicalKey)
		}
		byKey[rec.CanonicalKey] = append(byKey[rec.CanonicalKey], rec)
	}

	sort.Strings(keys)

	// The archive catalogue is Czech; signatures compare under Czech
	// collation rules.
	collator := collate.New(language.Czech)

	groups := make([]*Group, 0, len(keys))
	for _, key := range keys {
		members := byKey[key]
		sort.SliceStable(members, func(i, j int) bool {
			return lessMember(collator, members[i], members[j])
		})

		group := &Group{
			Key:     key,
			Records: members,
			Primary: members[0],
		}
		if group.Primary.Coordinate != nil {
			group.Coordinate = group.Primary.Coordinate
			group.Corrected = group.Primary.Corrected
		}
		groups = append(groups, group)
	}
	return groups
}

func lessMember(collator *collate.Collator, a, b *dataset.Record) bool {
	sigA := dataset.CleanSignature(a.Signature)
	sigB := dataset.CleanSignature(b.Signature)
	if sigA != "" && sigB != "" {
		if cmp := collator.CompareString(sigA, sigB); cmp != 0 {
			return cmp < 0
		}
	}
	return a.XID < b.XID
}
