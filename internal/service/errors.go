package service

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenInvalid covers every reason a token fails to decode: bad
	// signature, bad encoding, wrong algorithm, missing or past expiry.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrStoreUnavailable wraps failures of the revocation store and lookups.
	ErrStoreUnavailable = errors.New("backing store unavailable")

	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Reason tags why a request was rejected by the authentication or role gate.
type Reason string

const (
	ReasonUnauthenticated  Reason = "unauthenticated"
	ReasonTokenInvalid     Reason = "token_invalid"
	ReasonTokenWrongType   Reason = "token_wrong_type"
	ReasonTokenRevoked     Reason = "token_revoked"
	ReasonIdentityNotFound Reason = "identity_not_found"
	ReasonIdentityInactive Reason = "identity_inactive"
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// AuthError is the rejection returned by the gates. Message is safe to show
// to the caller; Err carries the internal cause for logs.
type AuthError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TokenLevel reports whether the rejection concerns the credential itself
// rather than the account behind it.
func (e *AuthError) TokenLevel() bool {
	switch e.Reason {
	case ReasonUnauthenticated, ReasonTokenInvalid, ReasonTokenWrongType, ReasonTokenRevoked:
		return true
	}
	return false
}

func reject(reason Reason, message string, err error) *AuthError {
	return &AuthError{Reason: reason, Message: message, Err: err}
}

// ReasonOf extracts the rejection reason from err, or "" when err is not an AuthError.
func ReasonOf(err error) Reason {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ""
}
