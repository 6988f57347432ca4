// Package auth supplies credentials for outbound gateway requests.
//
// A Provider yields the current credential value and its authorization
// scheme. Providers may hold static secrets, tokens that are validated
// before use, or refreshable OAuth tokens; the transport asks for the
// value once per call, before any network attempt, and fails fast when
// the provider reports the credential invalid.
package auth

import (
	"context"
	"errors"
)

// Sentinel errors reported by providers.
var (
	// ErrNoCredential means the provider holds no usable credential.
	ErrNoCredential = errors.New("auth: no credential configured")
	// ErrTokenExpired means the held token is past its expiry and the
	// provider cannot renew it.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Provider supplies the credential for outbound requests.
type Provider interface {
	// Scheme reports the Authorization scheme, e.g. "Bearer".
	Scheme() string
	// Value returns the current credential value. Providers holding
	// refreshable credentials renew them here, so the call may block on a
	// network round trip. An error means the credential is unavailable or
	// invalid and the request must not be sent.
	Value(ctx context.Context) (string, error)
}

// HeaderProvider is implemented by providers that authenticate with a
// vendor-specific header instead of the Authorization header.
type HeaderProvider interface {
	Provider
	// HeaderName returns the header carrying the credential, e.g. "X-Api-Key".
	HeaderName() string
}
