package db

import (
	"context"
	"fmt"
	"time"
)

// MergeDecisionRow is the read model for one historical merge verdict.
type MergeDecisionRow struct {
	ID         int64     `json:"id"`
	GroupA     string    `json:"group_a"`
	GroupB     string    `json:"group_b"`
	Verdict    string    `json:"verdict"`
	ReceivedAt time.Time `json:"received_at"`
}

// CorrectionRow is the read model for one historical correction.
type CorrectionRow struct {
	ID             int64     `json:"id"`
	XID            string    `json:"xid"`
	GroupKey       *string   `json:"group_key,omitempty"`
	Lat            *float64  `json:"lat,omitempty"`
	Lon            *float64  `json:"lon,omitempty"`
	HasCoordinates bool      `json:"has_coordinates"`
	Verdict        string    `json:"verdict"`
	Message        string    `json:"message"`
	ReceivedAt     time.Time `json:"received_at"`
}

// MergeDecisionInsert carries one validated, canonicalized merge verdict to
// append. GroupA < GroupB is the gateway's responsibility.
type MergeDecisionInsert struct {
	GroupA     string
	GroupB     string
	Verdict    string
	UserAgent  string
	ReceivedAt time.Time
}

// CorrectionInsert carries one validated correction to append.
type CorrectionInsert struct {
	XID            string
	GroupKey       *string
	Lat            *float64
	Lon            *float64
	HasCoordinates bool
	Verdict        string
	Message        string
	Email          *string
	UserAgent      string
	ReceivedAt     time.Time
}

// ListMergeDecisions reads the full merge log in append order. Append order
// is chronological order; downstream latest-wins rules depend on it.
func (p *Pool) ListMergeDecisions(ctx context.Context) ([]MergeDecisionRow, error) {
	const q = `
SELECT id, group_a, group_b, verdict, received_at
FROM atlas.merge_decisions
ORDER BY id ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query merge decisions: %w", err)
	}
	defer rows.Close()

	items := make([]MergeDecisionRow, 0, 64)
	for rows.Next() {
		var row MergeDecisionRow
		if err := rows.Scan(&row.ID, &row.GroupA, &row.GroupB, &row.Verdict, &row.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan merge decision row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merge decision rows: %w", err)
	}
	return items, nil
}

// ListCorrections reads the full correction log in append order.
func (p *Pool) ListCorrections(ctx context.Context) ([]CorrectionRow, error) {
	const q = `
SELECT id, xid, group_key, lat, lon, has_coordinates, verdict, message, received_at
FROM atlas.corrections
ORDER BY id ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query corrections: %w", err)
	}
	defer rows.Close()

	items := make([]CorrectionRow, 0, 64)
	for rows.Next() {
		var row CorrectionRow
		if err := rows.Scan(
			&row.ID,
			&row.XID,
			&row.GroupKey,
			&row.Lat,
			&row.Lon,
			&row.HasCoordinates,
			&row.Verdict,
			&row.Message,
			&row.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan correction row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate correction rows: %w", err)
	}
	return items, nil
}

// AppendMergeDecision appends exactly one merge verdict. Duplicate identical
// rows from client retries are acceptable; the log is append-only and
// latest-wins semantics downstream make duplicates harmless.
func (p *Pool) AppendMergeDecision(ctx context.Context, row MergeDecisionInsert) error {
	const q = `
INSERT INTO atlas.merge_decisions (group_a, group_b, verdict, user_agent, received_at)
VALUES ($1, $2, $3, $4, $5)
`

	if _, err := p.Exec(ctx, q, row.GroupA, row.GroupB, row.Verdict, row.UserAgent, row.ReceivedAt.UTC()); err != nil {
		return fmt.Errorf("insert merge decision: %w", err)
	}
	return nil
}

// AppendCorrection appends exactly one correction row.
func (p *Pool) AppendCorrection(ctx context.Context, row CorrectionInsert) error {
	const q = `
INSERT INTO atlas.corrections (xid, group_key, lat, lon, has_coordinates, verdict, message, email, user_agent, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

	if _, err := p.Exec(ctx, q,
		row.XID,
		row.GroupKey,
		row.Lat,
		row.Lon,
		row.HasCoordinates,
		row.Verdict,
		row.Message,
		row.Email,
		row.UserAgent,
		row.ReceivedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert correction: %w", err)
	}
	return nil
}

// DecisionCounts is a small stats read model for the CLI and the API.
type DecisionCounts struct {
	MergeDecisions int64      `json:"merge_decisions"`
	Corrections    int64      `json:"corrections"`
	LastReceivedAt *time.Time `json:"last_received_at,omitempty"`
}

// CountDecisions reports log sizes and the timestamp of the newest row.
func (p *Pool) CountDecisions(ctx context.Context) (DecisionCounts, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM atlas.merge_decisions),
	(SELECT COUNT(*) FROM atlas.corrections),
	GREATEST(
		(SELECT MAX(received_at) FROM atlas.merge_decisions),
		(SELECT MAX(received_at) FROM atlas.corrections)
	)
`

	var counts DecisionCounts
	if err := p.QueryRow(ctx, q).Scan(&counts.MergeDecisions, &counts.Corrections, &counts.LastReceivedAt); err != nil {
		return DecisionCounts{}, fmt.Errorf("count decisions: %w", err)
	}
	return counts, nil
}
