package inference

import (
	"errors"
	"fmt"

	"TradePilot/internal/domain/models"
)

// Kind classifies an inference failure. The pipeline treats Unauthorized as
// fatal for the capability and everything else as a trigger for the next
// cascade tier.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindUnavailable  Kind = "unavailable"
	KindMalformed    Kind = "malformed_response"
	KindTimeout      Kind = "timeout"
)

// Error is the typed failure returned by every unsuccessful inference call.
type Error struct {
	Kind       Kind
	Capability models.Capability
	Model      string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference %s (%s): %s: %v", e.Capability, e.Model, e.Kind, e.Err)
	}
	return fmt.Sprintf("inference %s (%s): %s", e.Capability, e.Model, e.Kind)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an inference Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Kind == kind
}

func newErr(kind Kind, cap models.Capability, model string, err error) *Error {
	return &Error{Kind: kind, Capability: cap, Model: model, Err: err}
}
