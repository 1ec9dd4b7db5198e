package dataset

import "strings"

// Coordinate is a WGS84 point. Records without usable geometry carry nil.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is one archival photograph entry after the parse boundary.
// BaseKey, CanonicalKey and Corrected are session-derived and never
// persisted back to the corpus.
type Record struct {
	XID             string
	Kind            string
	Description     string
	Author          string
	DateLabel       string
	Note            string
	Signature       string
	Views           string
	StartDate       string
	EndDate         string
	GeolocationType string
	Coordinate      *Coordinate

	BaseKey      string
	CanonicalKey string
	Corrected    bool
}

// CleanSignature strips the archive's inventory-number prefix and surrounding
// whitespace so signatures compare by their catalogue body.
func CleanSignature(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "sign.")
	s = strings.TrimPrefix(s, "Sign.")
	return strings.TrimSpace(s)
}
