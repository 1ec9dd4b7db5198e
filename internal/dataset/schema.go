package dataset

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed feature.schema.json
var featureSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

func featureSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("feature.schema.json", strings.NewReader(featureSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add feature schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("feature.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile feature schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compiledSchemaErr
}

// rawFeature mirrors one GeoJSON feature as produced by the corpus export.
type rawFeature struct {
	Type     string `json:"type"`
	Geometry *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		ID              string `json:"id"`
		Kind            string `json:"kind"`
		Description     string `json:"description"`
		DateLabel       string `json:"date_label"`
		StartDate       string `json:"start_date"`
		EndDate         string `json:"end_date"`
		Author          string `json:"author"`
		Note            string `json:"note"`
		Signature       string `json:"signature"`
		Views           string `json:"views"`
		GeolocationType string `json:"geolocation_type"`
	} `json:"properties"`
}

// ParseFeature validates one raw GeoJSON feature and converts it into a
// domain Record. Features that fail schema validation or lack an external
// identifier return a nil Record with the reason; callers treat both as
// tolerated corpus noise, not errors.
func ParseFeature(payload json.RawMessage) (*Record, error) {
	schema, err := featureSchema()
	if err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, fmt.Errorf("decode feature JSON: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("feature schema validation failed: %w", err)
	}

	var feature rawFeature
	if err := json.Unmarshal(payload, &feature); err != nil {
		return nil, fmt.Errorf("unmarshal feature: %w", err)
	}

	xid := strings.TrimSpace(feature.Properties.ID)
	if xid == "" {
		return nil, fmt.Errorf("feature has no external identifier")
	}

	rec := &Record{
		XID:             xid,
		Kind:            strings.TrimSpace(feature.Properties.Kind),
		Description:     strings.TrimSpace(feature.Properties.Description),
		Author:          strings.TrimSpace(feature.Properties.Author),
		DateLabel:       strings.TrimSpace(feature.Properties.DateLabel),
		Note:            strings.TrimSpace(feature.Properties.Note),
		Signature:       strings.TrimSpace(feature.Properties.Signature),
		Views:           strings.TrimSpace(feature.Properties.Views),
		StartDate:       strings.TrimSpace(feature.Properties.StartDate),
		EndDate:         strings.TrimSpace(feature.Properties.EndDate),
		GeolocationType: strings.TrimSpace(feature.Properties.GeolocationType),
	}

	if feature.Geometry != nil && len(feature.Geometry.Coordinates) >= 2 {
		// GeoJSON order is [lon, lat].
		rec.Coordinate = &Coordinate{
			Lat: feature.Geometry.Coordinates[1],
			Lon: feature.Geometry.Coordinates[0],
		}
	}

	if rec.StartDate == "" && rec.EndDate == "" && rec.DateLabel != "" {
		if span, ok := ParseDateLabel(rec.DateLabel); ok {
			rec.StartDate = span.Start
			rec.EndDate = span.End
		}
	}

	return rec, nil
}
