package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"oldprague.photos/fotoatlas/internal/gateway"
	"oldprague.photos/fotoatlas/internal/globaltime"
	"oldprague.photos/fotoatlas/internal/grouping"
	"oldprague.photos/fotoatlas/internal/turnstile"
)

type verifyRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleVerify(c echo.Context) error {
	var req verifyRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": "invalid JSON payload"})
	}

	now := globaltime.UTC()
	trusted := s.hasTrustedSession(c, now)

	if !trusted && !s.opts.TurnstileBypass {
		if req.Token == "" {
			return fail(c, http.StatusUnauthorized, "Verification token is required", nil)
		}
		if err := s.verifier.Verify(c.Request().Context(), req.Token, c.RealIP()); err != nil {
			if errors.Is(err, turnstile.ErrRejected) {
				return fail(c, http.StatusUnauthorized, "Verification failed", nil)
			}
			s.logger.Error().Err(err).Msg("turnstile verification unavailable")
			return fail(c, http.StatusBadGateway, "Verification service unavailable", nil)
		}
	}

	value, expires, err := s.signer.Issue(now)
	if err != nil {
		// A secretless deployment can still run with the bypass flag; the
		// gate waves submissions through, so skip the session cookie
		// instead of failing the whole verification.
		if s.opts.TurnstileBypass {
			return success(c, map[string]any{"verified": true})
		}
		s.logger.Error().Err(err).Msg("session issue failed")
		return internalError(c, "Could not establish session")
	}
	s.setSessionCookie(c, value, expires)

	return success(c, map[string]any{
		"verified":   true,
		"expires_at": expires.Format(time.RFC3339),
	})
}

type mergeRequest struct {
	GroupA  string `json:"group_a"`
	GroupB  string `json:"group_b"`
	Verdict string `json:"verdict"`
	Token   string `json:"turnstile_token"`
}

func (s *Server) handleSubmitMerge(c echo.Context) error {
	var req mergeRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": "invalid JSON payload"})
	}

	row, err := s.gw.SubmitMerge(c.Request().Context(), gateway.MergeSubmission{
		GroupA:    req.GroupA,
		GroupB:    req.GroupB,
		Verdict:   req.Verdict,
		UserAgent: c.Request().UserAgent(),
		Proof:     s.proofFrom(c, req.Token),
	})
	if err != nil {
		return s.submissionError(c, err)
	}

	s.rederiveAfterWrite(c)

	return success(c, map[string]any{
		"group_a": row.GroupA,
		"group_b": row.GroupB,
		"verdict": row.Verdict,
	})
}

type correctionRequest struct {
	XID      string   `json:"xid"`
	GroupKey string   `json:"group_key"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Verdict  string   `json:"verdict"`
	Message  string   `json:"message"`
	Email    string   `json:"email"`
	Token    string   `json:"turnstile_token"`
}

func (s *Server) handleSubmitCorrection(c echo.Context) error {
	var req correctionRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": "invalid JSON payload"})
	}

	row, err := s.gw.SubmitCorrection(c.Request().Context(), gateway.CorrectionSubmission{
		XID:       req.XID,
		GroupKey:  req.GroupKey,
		Lat:       req.Lat,
		Lon:       req.Lon,
		Verdict:   req.Verdict,
		Message:   req.Message,
		Email:     req.Email,
		UserAgent: c.Request().UserAgent(),
		Proof:     s.proofFrom(c, req.Token),
	})
	if err != nil {
		return s.submissionError(c, err)
	}

	s.rederiveAfterWrite(c)

	return success(c, map[string]any{
		"xid":     row.XID,
		"verdict": row.Verdict,
	})
}

func (s *Server) handleCandidateNext(c echo.Context) error {
	snap := s.snapshots.current()

	id, queue, err := s.reviews.acquire(s.readReviewCookie(c), snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("review session allocation failed")
		return internalError(c, "Could not allocate review session")
	}
	s.setReviewCookie(c, id)

	pair, ok := queue.Next()
	if !ok {
		return success(c, map[string]any{"exhausted": true})
	}
	return success(c, s.candidatePayload(snap, pair, queue))
}

func (s *Server) handleCandidatePrevious(c echo.Context) error {
	snap := s.snapshots.current()

	id, queue, err := s.reviews.acquire(s.readReviewCookie(c), snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("review session allocation failed")
		return internalError(c, "Could not allocate review session")
	}
	s.setReviewCookie(c, id)

	pair, ok := queue.Previous()
	if !ok {
		return failNotFound(c, "No previous candidate")
	}
	return success(c, s.candidatePayload(snap, pair, queue))
}

func (s *Server) candidatePayload(snap *grouping.Snapshot, pair grouping.Pair, queue *grouping.CandidateQueue) map[string]any {
	payload := map[string]any{
		"pair":      pair,
		"remaining": queue.Len(),
		"total":     queue.Total(),
	}
	if group, ok := snap.Group(pair.A); ok {
		payload["group_a"] = buildGroupDetail(group)
	}
	if group, ok := snap.Group(pair.B); ok {
		payload["group_b"] = buildGroupDetail(group)
	}
	return payload
}

// proofFrom assembles the anti-abuse proof for a submission from the fresh
// token in the body plus the signed session cookie, whichever is present.
func (s *Server) proofFrom(c echo.Context, token string) gateway.Proof {
	return gateway.Proof{
		Token:          token,
		RemoteIP:       c.RealIP(),
		TrustedSession: s.hasTrustedSession(c, globaltime.UTC()),
	}
}

func (s *Server) submissionError(c echo.Context, err error) error {
	if verr, ok := gateway.AsValidation(err); ok {
		return failValidation(c, map[string]string{verr.Field: verr.Reason})
	}
	if errors.Is(err, gateway.ErrUnauthorized) {
		return fail(c, http.StatusUnauthorized, "Authorization incomplete", nil)
	}
	if errors.Is(err, turnstile.ErrUnavailable) {
		return fail(c, http.StatusBadGateway, "Verification service unavailable", nil)
	}
	s.logger.Error().Err(err).Msg("decision submission failed")
	return internalError(c, "Could not record decision")
}

// rederiveAfterWrite rebuilds the snapshot so the accepted decision is
// reflected immediately. The append already succeeded; a derivation failure
// keeps the previous snapshot and is only logged.
func (s *Server) rederiveAfterWrite(c echo.Context) {
	if err := s.rederive(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("snapshot rebuild after decision failed")
	}
}

func (s *Server) hasTrustedSession(c echo.Context, now time.Time) bool {
	cookie, err := c.Cookie(s.opts.SessionCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	return s.signer.Validate(cookie.Value, now)
}

func (s *Server) setSessionCookie(c echo.Context, value string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) readReviewCookie(c echo.Context) string {
	cookie, err := c.Cookie(reviewCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) setReviewCookie(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     reviewCookieName,
		Value:    id,
		Path:     "/",
		Expires:  globaltime.UTC().Add(reviewSessionTTL),
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
