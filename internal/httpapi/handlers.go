package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"oldprague.photos/fotoatlas/internal/dataset"
	"oldprague.photos/fotoatlas/internal/grouping"
)

type groupSummary struct {
	Key         string              `json:"key"`
	RecordCount int                 `json:"record_count"`
	PrimaryXID  string              `json:"primary_xid"`
	Coordinate  *dataset.Coordinate `json:"coordinate,omitempty"`
	Corrected   bool                `json:"corrected,omitempty"`
}

type groupDetail struct {
	groupSummary
	Members []groupMember `json:"members"`
}

type groupMember struct {
	XID         string              `json:"xid"`
	Description string              `json:"description,omitempty"`
	Author      string              `json:"author,omitempty"`
	DateLabel   string              `json:"date_label,omitempty"`
	Signature   string              `json:"signature,omitempty"`
	Coordinate  *dataset.Coordinate `json:"coordinate,omitempty"`
	Corrected   bool                `json:"corrected,omitempty"`
}

func buildGroupSummary(group *grouping.Group) groupSummary {
	return groupSummary{
		Key:         group.Key,
		RecordCount: len(group.Records),
		PrimaryXID:  group.Primary.XID,
		Coordinate:  group.Coordinate,
		Corrected:   group.Corrected,
	}
}

func buildGroupDetail(group *grouping.Group) groupDetail {
	detail := groupDetail{
		groupSummary: buildGroupSummary(group),
		Members:      make([]groupMember, 0, len(group.Records)),
	}
	for _, rec := range group.Records {
		detail.Members = append(detail.Members, groupMember{
			XID:         rec.XID,
			Description: rec.Description,
			Author:      rec.Author,
			DateLabel:   rec.DateLabel,
			Signature:   rec.Signature,
			Coordinate:  rec.Coordinate,
			Corrected:   rec.Corrected,
		})
	}
	return detail
}

func (s *Server) handleGroups(c echo.Context) error {
	snap := s.snapshots.current()

	limit := parseListLimit(c.QueryParam("limit"))
	offset := parseListOffset(c.QueryParam("offset"))

	groups := snap.Groups
	total := len(groups)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]groupSummary, 0, end-offset)
	for _, group := range groups[offset:end] {
		items = append(items, buildGroupSummary(group))
	}

	return success(c, map[string]any{
		"items":  items,
		"total":  total,
		"offset": offset,
	})
}

func (s *Server) handleGroupDetail(c echo.Context) error {
	key := c.QueryParam("key")
	if strings.TrimSpace(key) == "" {
		return failValidation(c, map[string]string{"key": "is required"})
	}

	snap := s.snapshots.current()
	group, ok := snap.Group(snap.Resolve(key))
	if !ok {
		// A record identifier also names its singleton group.
		group, ok = snap.GroupOfRecord(key)
	}
	if !ok {
		return failNotFound(c, "Group not found")
	}

	return success(c, buildGroupDetail(group))
}

func (s *Server) handleResolve(c echo.Context) error {
	key := c.QueryParam("key")
	if strings.TrimSpace(key) == "" {
		return failValidation(c, map[string]string{"key": "is required"})
	}

	snap := s.snapshots.current()
	return success(c, map[string]any{
		"key":       key,
		"canonical": snap.Resolve(key),
	})
}

// geoJSONFeature mirrors the corpus export shape so map clients consume the
// derived view with the same loader they use for the raw dataset.
type geoJSONFeature struct {
	Type     string         `json:"type"`
	Geometry map[string]any `json:"geometry"`
	Props    map[string]any `json:"properties"`
}

func (s *Server) handlePhotos(c echo.Context) error {
	snap := s.snapshots.current()

	features := make([]geoJSONFeature, 0, len(snap.Records))
	for _, rec := range snap.Records {
		if rec.Coordinate == nil {
			continue
		}
		features = append(features, geoJSONFeature{
			Type: "Feature",
			Geometry: map[string]any{
				"type":        "Point",
				"coordinates": []float64{rec.Coordinate.Lon, rec.Coordinate.Lat},
			},
			Props: map[string]any{
				"id":               rec.XID,
				"kind":             rec.Kind,
				"description":      rec.Description,
				"date_label":       rec.DateLabel,
				"start_date":       rec.StartDate,
				"end_date":         rec.EndDate,
				"author":           rec.Author,
				"note":             rec.Note,
				"views":            rec.Views,
				"geolocation_type": rec.GeolocationType,
				"group_id":         rec.CanonicalKey,
				"corrected":        rec.Corrected,
			},
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	})
}

func (s *Server) handleCandidates(c echo.Context) error {
	snap := s.snapshots.current()
	return success(c, map[string]any{
		"count": len(snap.Candidates),
		"items": snap.Candidates,
	})
}

func (s *Server) handleMergeList(c echo.Context) error {
	snap := s.snapshots.current()
	items := snap.MergeSummaries()
	return success(c, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleCorrectionList(c echo.Context) error {
	snap := s.snapshots.current()
	items := snap.CorrectionSummaries()
	return success(c, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func parseListLimit(raw string) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func parseListOffset(raw string) int {
	offset, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
