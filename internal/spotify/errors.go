package spotify

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates no client ID is configured. Initiating a login
// has no fallback, so callers surface this one.
var ErrNotConfigured = errors.New("spotify client ID not configured")

// ErrNotLinked indicates no account is linked (no stored token).
var ErrNotLinked = errors.New("no spotify account linked")

// ErrAuthRequired indicates the stored authorization was rejected and the
// user must re-link the account.
var ErrAuthRequired = errors.New("spotify authorization expired or invalid")

// ErrStateMismatch indicates the OAuth callback carried an unknown state
// value and the code exchange was refused.
var ErrStateMismatch = errors.New("oauth state mismatch")

// ErrUnavailable indicates a transient failure talking to the provider.
type ErrUnavailable struct {
	Cause error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("spotify unavailable: %v", e.Cause)
}

func (e *ErrUnavailable) Unwrap() error { return e.Cause }
