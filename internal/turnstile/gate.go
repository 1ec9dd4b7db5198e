package turnstile

import (
	"context"
	"errors"
	"fmt"

	"oldprague.photos/fotoatlas/internal/gateway"
)

// ErrUnavailable wraps verification-service outages so callers can surface
// them as retryable instead of treating them as rejections.
var ErrUnavailable = errors.New("turnstile verification unavailable")

// Gate adapts Turnstile verification to the gateway's Authorizer contract.
// A submission is authorized by bypass mode, an established trusted session,
// or a fresh token that verifies.
type Gate struct {
	verifier *Verifier
	bypass   bool
}

func NewGate(verifier *Verifier, bypass bool) *Gate {
	return &Gate{
		verifier: verifier,
		bypass:   bypass,
	}
}

func (g *Gate) Authorize(ctx context.Context, proof gateway.Proof) error {
	if g.bypass {
		return nil
	}
	if proof.TrustedSession {
		return nil
	}
	if proof.Token == "" {
		return fmt.Errorf("%w: verification token or trusted session required", gateway.ErrUnauthorized)
	}

	if err := g.verifier.Verify(ctx, proof.Token, proof.RemoteIP); err != nil {
		if errors.Is(err, ErrRejected) {
			return fmt.Errorf("%w: %v", gateway.ErrUnauthorized, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
