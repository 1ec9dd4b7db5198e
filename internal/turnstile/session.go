package turnstile

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SessionSigner issues and validates trusted-session cookie values of the
// form "<unix-expiry>.<hex hmac-sha256>". The signature covers only the
// expiry; possession of a valid signature is the whole claim.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionSigner(secret string, ttl time.Duration) *SessionSigner {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &SessionSigner{
		secret: []byte(strings.TrimSpace(secret)),
		ttl:    ttl,
	}
}

// TTL reports the configured session lifetime.
func (s *SessionSigner) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new session value expiring TTL from now.
func (s *SessionSigner) Issue(now time.Time) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("session secret is not configured")
	}
	expires := now.Add(s.ttl)
	exp := expires.Unix()
	return fmt.Sprintf("%d.%s", exp, s.sign(exp)), expires, nil
}

// Validate reports whether value is a well-formed, unexpired, correctly
// signed session.
func (s *SessionSigner) Validate(value string, now time.Time) bool {
	if len(s.secret) == 0 {
		return false
	}
	parts := strings.SplitN(strings.TrimSpace(value), ".", 2)
	if len(parts) != 2 {
		return false
	}
	exp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || exp < now.Unix() {
		return false
	}
	expected := s.sign(exp)
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}

func (s *SessionSigner) sign(exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
