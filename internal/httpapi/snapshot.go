package httpapi

import (
	"context"
	"fmt"
	"sync"

	"oldprague.photos/fotoatlas/internal/db"
	"oldprague.photos/fotoatlas/internal/grouping"
)

// snapshotHolder guards the current derived view. Derivation is
// all-or-nothing: a failed re-derivation leaves the previous snapshot in
// place, never a partially updated one.
type snapshotHolder struct {
	mu   sync.RWMutex
	snap *grouping.Snapshot
}

func (h *snapshotHolder) current() *grouping.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

func (h *snapshotHolder) replace(snap *grouping.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = snap
}

// rederive fetches one consistent read of both decision logs and rebuilds
// the whole derived view from scratch. Called at startup and after every
// accepted decision.
func (s *Server) rederive(ctx context.Context) error {
	merges, err := s.pool.ListMergeDecisions(ctx)
	if err != nil {
		return fmt.Errorf("fetch merge decisions: %w", err)
	}
	corrections, err := s.pool.ListCorrections(ctx)
	if err != nil {
		return fmt.Errorf("fetch corrections: %w", err)
	}

	snap := grouping.Derive(s.records, toMergeDecisions(merges), toCorrections(corrections), s.hints)
	s.snapshots.replace(snap)
	s.logger.Info().
		Int("records", snap.Stats.Records).
		Int("groups", snap.Stats.Groups).
		Int("candidates", snap.Stats.Candidates).
		Int("merge_decisions", snap.Stats.MergeDecisions).
		Int("corrections", snap.Stats.Corrections).
		Msg("derived grouping snapshot")
	return nil
}

func toMergeDecisions(rows []db.MergeDecisionRow) []grouping.MergeDecision {
	decisions := make([]grouping.MergeDecision, 0, len(rows))
	for _, row := range rows {
		decisions = append(decisions, grouping.MergeDecision{
			GroupA:  row.GroupA,
			GroupB:  row.GroupB,
			Verdict: row.Verdict,
		})
	}
	return decisions
}

func toCorrections(rows []db.CorrectionRow) []grouping.Correction {
	corrections := make([]grouping.Correction, 0, len(rows))
	for _, row := range rows {
		corr := grouping.Correction{
			XID:            row.XID,
			Lat:            row.Lat,
			Lon:            row.Lon,
			HasCoordinates: row.HasCoordinates,
			Verdict:        row.Verdict,
			Message:        row.Message,
		}
		if row.GroupKey != nil {
			corr.GroupKey = *row.GroupKey
		}
		corrections = append(corrections, corr)
	}
	return corrections
}
