package gateway

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a submission that failed the anti-abuse gate. It is
// deliberately distinct from validation failures so the UI re-prompts for
// verification instead of showing a data-entry error.
var ErrUnauthorized = errors.New("authorization incomplete")

// Validation reasons. Every rejected submission carries a specific reason so
// the UI can guide correction without guessing.
const (
	ReasonMissingGroup      = "group identifier is required"
	ReasonSameGroup         = "cannot merge a group with itself"
	ReasonMissingRecord     = "record identifier is required"
	ReasonInvalidVerdict    = "invalid verdict"
	ReasonInvalidPosition   = "invalid position"
	ReasonPositionRequired  = "position is required for this verdict"
	ReasonPositionForbidden = "position is forbidden for this verdict"
	ReasonInvalidEmail      = "invalid email address"
	ReasonMessageTooLong    = "message is too long"
)

// ValidationError rejects a malformed submission before it reaches the log.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation unwraps a submission error into a ValidationError, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
