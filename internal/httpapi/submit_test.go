package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"oldprague.photos/fotoatlas/internal/gateway"
	"oldprague.photos/fotoatlas/internal/globaltime"
	"oldprague.photos/fotoatlas/internal/turnstile"
)

func TestSubmissionErrorMapping(t *testing.T) {
	t.Parallel()

	s := testServer(t, testRecords())

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &gateway.ValidationError{Field: "verdict", Reason: gateway.ReasonInvalidVerdict}, http.StatusBadRequest},
		{"unauthorized", fmt.Errorf("gate: %w", gateway.ErrUnauthorized), http.StatusUnauthorized},
		{"verifier outage", fmt.Errorf("gate: %w", turnstile.ErrUnavailable), http.StatusBadGateway},
		{"append failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/merges", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := s.submissionError(c, tc.err); err != nil {
			t.Fatalf("%s: submissionError returned %v", tc.name, err)
		}
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, expected %d", tc.name, rec.Code, tc.status)
		}
	}
}

func TestSubmissionValidationPayload(t *testing.T) {
	t.Parallel()

	s := testServer(t, testRecords())
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/corrections", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	verr := &gateway.ValidationError{Field: "position", Reason: gateway.ReasonPositionRequired}
	if err := s.submissionError(c, verr); err != nil {
		t.Fatalf("submissionError returned %v", err)
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ValidationErrors map[string]string `json:"validation_errors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "fail" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Data.ValidationErrors["position"] != gateway.ReasonPositionRequired {
		t.Fatalf("unexpected validation payload: %+v", resp.Data)
	}
}

func TestHandleVerifyBypass(t *testing.T) {
	t.Parallel()

	s := testServer(t, testRecords())
	s.opts.TurnstileBypass = true

	rec := doRequest(t, s, s.handleVerify, http.MethodPost, "/api/v1/verify", `{"token": ""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == s.opts.SessionCookie {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		t.Fatalf("no session cookie issued")
	}
	if !strings.Contains(sessionCookie.Value, ".") {
		t.Fatalf("cookie value %q is not a signed session", sessionCookie.Value)
	}
}

func TestHandleVerifyBypassWithoutSecret(t *testing.T) {
	t.Parallel()

	s := testServer(t, testRecords())
	s.opts.TurnstileBypass = true
	s.signer = turnstile.NewSessionSigner("", 0)

	rec := doRequest(t, s, s.handleVerify, http.MethodPost, "/api/v1/verify", `{"token": ""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if cookies := rec.Result().Cookies(); len(cookies) != 0 {
		t.Fatalf("secretless bypass issued cookies: %+v", cookies)
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Verified bool `json:"verified"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || !resp.Data.Verified {
		t.Fatalf("unexpected verify payload: %s", rec.Body.String())
	}
}

func TestHandleVerifyRequiresToken(t *testing.T) {
	t.Parallel()

	s := testServer(t, testRecords())
	s.verifier = turnstile.NewVerifier("secret", nil)

	rec := doRequest(t, s, s.handleVerify, http.MethodPost, "/api/v1/verify", `{"token": ""}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, expected 401 without token or session", rec.Code)
	}
}

func TestHasTrustedSession(t *testing.T) {
	t.Parallel()

	s := testServer(t, testRecords())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	now := globaltime.UTC()
	if s.hasTrustedSession(c, now) {
		t.Fatalf("trusted session without cookie")
	}

	value, _, err := s.signer.Issue(now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: s.opts.SessionCookie, Value: value})
	c = e.NewContext(req, httptest.NewRecorder())
	if !s.hasTrustedSession(c, now) {
		t.Fatalf("valid session cookie not trusted")
	}
}
