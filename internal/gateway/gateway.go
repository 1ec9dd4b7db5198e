// Package gateway is the single write path into the decision log. It
// validates and canonicalizes user verdicts, enforces the anti-abuse gate,
// and appends exactly one row per accepted submission. Validation and
// authorization failures are terminal here; they never reach the append.
package gateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"oldprague.photos/fotoatlas/internal/db"
	"oldprague.photos/fotoatlas/internal/globaltime"
	"oldprague.photos/fotoatlas/internal/grouping"
)

const maxMessageLength = 2000

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Proof carries what a submitter offers the anti-abuse gate: a fresh
// verification token, an already-established trusted session, or neither.
type Proof struct {
	Token          string
	RemoteIP       string
	TrustedSession bool
}

// Authorizer is the externally supplied "is this request authorized" check.
// A nil return authorizes the write; gate rejections wrap ErrUnauthorized;
// anything else is a transient verification-service failure.
type Authorizer interface {
	Authorize(ctx context.Context, proof Proof) error
}

// Log is the append-only decision store consumed by the gateway.
type Log interface {
	AppendMergeDecision(ctx context.Context, row db.MergeDecisionInsert) error
	AppendCorrection(ctx context.Context, row db.CorrectionInsert) error
}

// MergeSubmission is one proposed merge verdict as received from a client.
type MergeSubmission struct {
	GroupA    string
	GroupB    string
	Verdict   string
	UserAgent string
	Proof     Proof
}

// CorrectionSubmission is one proposed correction as received from a client.
type CorrectionSubmission struct {
	XID       string
	GroupKey  string
	Lat       *float64
	Lon       *float64
	Verdict   string
	Message   string
	Email     string
	UserAgent string
	Proof     Proof
}

type Gateway struct {
	log    Log
	auth   Authorizer
	logger zerolog.Logger
}

func New(log Log, auth Authorizer, logger zerolog.Logger) *Gateway {
	return &Gateway{
		log:    log,
		auth:   auth,
		logger: logger,
	}
}

// SubmitMerge validates, authorizes, canonicalizes and appends one merge
// verdict. The returned row reflects what was persisted: group identifiers
// are sorted so the log never stores the same logical pair in two
// orientations.
func (g *Gateway) SubmitMerge(ctx context.Context, sub MergeSubmission) (db.MergeDecisionInsert, error) {
	groupA := strings.TrimSpace(sub.GroupA)
	groupB := strings.TrimSpace(sub.GroupB)
	if groupA == "" {
		return db.MergeDecisionInsert{}, invalid("group_a", ReasonMissingGroup)
	}
	if groupB == "" {
		return db.MergeDecisionInsert{}, invalid("group_b", ReasonMissingGroup)
	}
	if groupA == groupB {
		return db.MergeDecisionInsert{}, invalid("group_b", ReasonSameGroup)
	}

	verdict := strings.ToLower(strings.TrimSpace(sub.Verdict))
	if verdict == "" {
		verdict = grouping.VerdictSame
	}
	if verdict != grouping.VerdictSame && verdict != grouping.VerdictDifferent {
		return db.MergeDecisionInsert{}, invalid("verdict", ReasonInvalidVerdict)
	}

	if err := g.authorize(ctx, sub.Proof); err != nil {
		return db.MergeDecisionInsert{}, err
	}

	if groupA > groupB {
		groupA, groupB = groupB, groupA
	}

	row := db.MergeDecisionInsert{
		GroupA:     groupA,
		GroupB:     groupB,
		Verdict:    verdict,
		UserAgent:  strings.TrimSpace(sub.UserAgent),
		ReceivedAt: globaltime.UTC(),
	}
	if err := g.log.AppendMergeDecision(ctx, row); err != nil {
		return db.MergeDecisionInsert{}, fmt.Errorf("append merge decision: %w", err)
	}

	g.logger.Info().
		Str("group_a", row.GroupA).
		Str("group_b", row.GroupB).
		Str("verdict", row.Verdict).
		Msg("merge decision accepted")
	return row, nil
}

// SubmitCorrection validates, authorizes and appends one correction. A
// correction either asserts a new position (verdict "wrong", coordinates
// required) or makes a non-positional statement (verdict "ok" or "flag",
// coordinates forbidden); never both.
func (g *Gateway) SubmitCorrection(ctx context.Context, sub CorrectionSubmission) (db.CorrectionInsert, error) {
	xid := strings.TrimSpace(sub.XID)
	if xid == "" {
		return db.CorrectionInsert{}, invalid("xid", ReasonMissingRecord)
	}

	email := strings.TrimSpace(sub.Email)
	if email != "" && !emailPattern.MatchString(email) {
		return db.CorrectionInsert{}, invalid("email", ReasonInvalidEmail)
	}

	message := strings.TrimSpace(sub.Message)
	if len([]rune(message)) > maxMessageLength {
		return db.CorrectionInsert{}, invalid("message", ReasonMessageTooLong)
	}

	if (sub.Lat == nil) != (sub.Lon == nil) {
		return db.CorrectionInsert{}, invalid("position", ReasonInvalidPosition)
	}
	hasCoordinates := sub.Lat != nil && sub.Lon != nil

	verdict := strings.ToLower(strings.TrimSpace(sub.Verdict))
	if verdict == "" {
		if hasCoordinates {
			verdict = grouping.VerdictWrong
		} else {
			verdict = grouping.VerdictFlag
		}
	}
	switch verdict {
	case grouping.VerdictOK, grouping.VerdictWrong, grouping.VerdictFlag:
	default:
		return db.CorrectionInsert{}, invalid("verdict", ReasonInvalidVerdict)
	}

	if verdict == grouping.VerdictWrong && !hasCoordinates {
		return db.CorrectionInsert{}, invalid("position", ReasonPositionRequired)
	}
	if verdict != grouping.VerdictWrong && hasCoordinates {
		return db.CorrectionInsert{}, invalid("position", ReasonPositionForbidden)
	}

	if hasCoordinates {
		if *sub.Lat < -90 || *sub.Lat > 90 || *sub.Lon < -180 || *sub.Lon > 180 {
			return db.CorrectionInsert{}, invalid("position", ReasonInvalidPosition)
		}
	}

	if err := g.authorize(ctx, sub.Proof); err != nil {
		return db.CorrectionInsert{}, err
	}

	row := db.CorrectionInsert{
		XID:            xid,
		HasCoordinates: hasCoordinates,
		Verdict:        verdict,
		Message:        message,
		UserAgent:      strings.TrimSpace(sub.UserAgent),
		ReceivedAt:     globaltime.UTC(),
	}
	if groupKey := strings.TrimSpace(sub.GroupKey); groupKey != "" {
		row.GroupKey = &groupKey
	}
	if hasCoordinates {
		lat, lon := *sub.Lat, *sub.Lon
		row.Lat = &lat
		row.Lon = &lon
	}
	if email != "" {
		row.Email = &email
	}

	if err := g.log.AppendCorrection(ctx, row); err != nil {
		return db.CorrectionInsert{}, fmt.Errorf("append correction: %w", err)
	}

	g.logger.Info().
		Str("xid", row.XID).
		Str("verdict", row.Verdict).
		Bool("has_coordinates", row.HasCoordinates).
		Msg("correction accepted")
	return row, nil
}

func (g *Gateway) authorize(ctx context.Context, proof Proof) error {
	if g.auth == nil {
		return ErrUnauthorized
	}
	if err := g.auth.Authorize(ctx, proof); err != nil {
		return err
	}
	return nil
}
