package grouping

import "oldprague.photos/fotoatlas/internal/dataset"

// resolveCorrectionKey determines which canonical group a correction speaks
// about. Preference order: the group key the submitter recorded, the base
// key of the record the correction was filed against, and finally the raw
// record identifier itself. An empty result means the row is unresolvable
// and is ignored for projection.
func resolveCorrectionKey(corr Correction, baseKeyByXID map[string]string, resolver *Resolver) string {
	ref := corr.GroupKey
	if ref == "" {
		ref = baseKeyByXID[corr.XID]
	}
	if ref == "" {
		ref = corr.XID
	}
	if ref == "" {
		return ""
	}
	return resolver.Find(ref)
}

// ProjectCorrections applies the latest coordinate-bearing correction for
// each canonical group onto every record of that group. A correction is a
// statement about the group's true location, not one photograph's, so all
// siblings receive the coordinate and are tagged as corrected. Returns the
// number of records touched.
//
// "Latest" means highest position in the input slice; the decision log is
// append-only, so slice order is chronological order.
func ProjectCorrections(records []*dataset.Record, corrections []Correction, baseKeyByXID map[string]string, resolver *Resolver) int {
	latest := make(map[string]dataset.Coordinate)
	for _, corr := range corrections {
		if !corr.HasCoordinates || corr.Lat == nil || corr.Lon == nil {
			continue
		}
		canonical := resolveCorrectionKey(corr, baseKeyByXID, resolver)
		if canonical == "" {
			continue
		}
		latest[canonical] = dataset.Coordinate{Lat: *corr.Lat, Lon: *corr.Lon}
	}

	if len(latest) == 0 {
		return 0
	}

	applied := 0
	for _, rec := range records {
		if rec == nil || rec.BaseKey == "" {
			continue
		}
		coord, ok := latest[resolver.Find(rec.BaseKey)]
		if !ok {
			continue
		}
		rec.Coordinate = &dataset.Coordinate{Lat: coord.Lat, Lon: coord.Lon}
		rec.Corrected = true
		applied++
	}
	return applied
}

// CorrectionSummary is the authoritative per-group view of the correction
// log: the latest verdict for the group plus the latest coordinates, which
// may come from different rows.
type CorrectionSummary struct {
	GroupKey       string   `json:"group_key"`
	XID            string   `json:"xid"`
	Verdict        string   `json:"verdict"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	HasCoordinates bool     `json:"has_coordinates"`
}

// SummarizeCorrections reduces the correction log to one entry per canonical
// group: the most recently appended row wins for the verdict, and the most
// recently appended coordinate-bearing row wins for the position.
func SummarizeCorrections(corrections []Correction, baseKeyByXID map[string]string, resolver *Resolver) []CorrectionSummary {
	latestByGroup := make(map[string]CorrectionSummary)
	order := make([]string, 0, len(corrections))

	for _, corr := range corrections {
		canonical := resolveCorrectionKey(corr, baseKeyByXID, resolver)
		if canonical == "" {
			continue
		}

		entry, seen := latestByGroup[canonical]
		if !seen {
			order = append(order, canonical)
			entry = CorrectionSummary{GroupKey: canonical}
		}
		entry.XID = corr.XID
		entry.Verdict = corr.Verdict
		if corr.HasCoordinates && corr.Lat != nil && corr.Lon != nil {
			lat, lon := *corr.Lat, *corr.Lon
			entry.Lat = &lat
			entry.Lon = &lon
			entry.HasCoordinates = true
		}
		latestByGroup[canonical] = entry
	}

	result := make([]CorrectionSummary, 0, len(order))
	for _, key := range order {
		result = append(result, latestByGroup[key])
	}
	return result
}
