package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const validFeature = `{
	"type": "Feature",
	"geometry": {"type": "Point", "coordinates": [14.421254, 50.087465]},
	"properties": {
		"id": "X1",
		"kind": "fotografie",
		"description": "Staroměstské náměstí",
		"date_label": "1890",
		"author": "Eckert, Jindřich",
		"signature": "sign. I 1000"
	}
}`

func TestParseFeature(t *testing.T) {
	t.Parallel()

	rec, err := ParseFeature(json.RawMessage(validFeature))
	if err != nil {
		t.Fatalf("ParseFeature failed: %v", err)
	}
	if rec.XID != "X1" {
		t.Fatalf("XID = %q, expected X1", rec.XID)
	}
	if rec.Coordinate == nil || rec.Coordinate.Lat != 50.087465 || rec.Coordinate.Lon != 14.421254 {
		t.Fatalf("coordinate not converted from GeoJSON order: %+v", rec.Coordinate)
	}
	// Date span filled from the label when the export carries none.
	if rec.StartDate != "1890-01-01" || rec.EndDate != "1890-12-31" {
		t.Fatalf("date span = %s..%s, expected 1890-01-01..1890-12-31", rec.StartDate, rec.EndDate)
	}
}

func TestParseFeatureWithoutGeometry(t *testing.T) {
	t.Parallel()

	rec, err := ParseFeature(json.RawMessage(`{
		"type": "Feature",
		"geometry": null,
		"properties": {"id": "X2"}
	}`))
	if err != nil {
		t.Fatalf("ParseFeature failed: %v", err)
	}
	if rec.Coordinate != nil {
		t.Fatalf("expected nil coordinate, got %+v", rec.Coordinate)
	}
}

func TestParseFeatureRejectsMissingID(t *testing.T) {
	t.Parallel()

	if _, err := ParseFeature(json.RawMessage(`{"type": "Feature", "properties": {}}`)); err == nil {
		t.Fatalf("expected error for feature without identifier")
	}
	if _, err := ParseFeature(json.RawMessage(`{"type": "Feature", "properties": {"id": "   "}}`)); err == nil {
		t.Fatalf("expected error for blank identifier")
	}
}

func TestLoadToleratesInvalidFeatures(t *testing.T) {
	t.Parallel()

	payload := `{
		"type": "FeatureCollection",
		"features": [
			` + validFeature + `,
			{"type": "Feature", "properties": {}},
			{"type": "NotAFeature"}
		]
	}`

	records, stats, err := Load([]byte(payload))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if stats.Features != 3 || stats.Loaded != 1 || stats.Skipped != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestLoadRejectsNonCollection(t *testing.T) {
	t.Parallel()

	if _, _, err := Load([]byte(`{"type": "Feature"}`)); err == nil {
		t.Fatalf("expected error for non-collection payload")
	}
	if _, _, err := Load([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for broken payload")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "photos.geojson")
	payload := `{"type": "FeatureCollection", "features": [` + validFeature + `]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	records, _, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(records) != 1 || records[0].XID != "X1" {
		t.Fatalf("unexpected records: %+v", records)
	}

	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.geojson")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
