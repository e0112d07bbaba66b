package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is the single caller-visible authentication outcome.
// Every rejection reason below wraps it.
var ErrUnauthorized = errors.New("not authorized")

// Authentication errors.
var (
	ErrMissingCredential       = fmt.Errorf("%w: missing or malformed bearer credential", ErrUnauthorized)
	ErrExternalRejected        = fmt.Errorf("%w: session rejected by invidious", ErrUnauthorized)
	ErrInvidiousUnavailable    = fmt.Errorf("%w: invidious unreachable", ErrUnauthorized)
	ErrMissingSession          = fmt.Errorf("%w: token has no session field", ErrUnauthorized)
	ErrEmptySession            = fmt.Errorf("%w: empty session identifier", ErrUnauthorized)
	ErrUnknownSession          = fmt.Errorf("%w: session not found", ErrUnauthorized)
	ErrSessionStoreUnavailable = fmt.Errorf("%w: session store unavailable", ErrUnauthorized)
)

// Progress errors.
var (
	ErrInvalidVideoID  = errors.New("invalid video id")
	ErrTooManyVideoIDs = errors.New("too many video ids")
	ErrInvalidProgress = errors.New("invalid progress")
)

// RejectionReason returns a short, log-safe label for an authentication error.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrExternalRejected):
		return "external_rejected"
	case errors.Is(err, ErrInvidiousUnavailable):
		return "invidious_unavailable"
	case errors.Is(err, ErrMissingSession):
		return "missing_session"
	case errors.Is(err, ErrEmptySession):
		return "empty_session"
	case errors.Is(err, ErrUnknownSession):
		return "unknown_session"
	case errors.Is(err, ErrSessionStoreUnavailable):
		return "session_store_unavailable"
	default:
		return "other"
	}
}
