package auth

import "context"

// APIKey is a static-secret provider sent as "Authorization: Bearer <key>".
type APIKey struct {
	key string
}

// NewAPIKey creates a provider around a static API key.
func NewAPIKey(key string) *APIKey {
	return &APIKey{key: key}
}

// Scheme returns the authorization scheme.
func (a *APIKey) Scheme() string { return "Bearer" }

// Value returns the configured key.
func (a *APIKey) Value(_ context.Context) (string, error) {
	if a.key == "" {
		return "", ErrNoCredential
	}
	return a.key, nil
}

// HeaderKey is a static-secret provider sent in a vendor-specific header
// (e.g. "X-Api-Key: <key>") instead of the Authorization header.
type HeaderKey struct {
	header string
	key    string
}

// NewHeaderKey creates a provider that sends the key in the named header.
func NewHeaderKey(header, key string) *HeaderKey {
	return &HeaderKey{header: header, key: key}
}

// Scheme returns the authorization scheme. Header credentials carry no
// scheme prefix on the wire.
func (h *HeaderKey) Scheme() string { return "" }

// HeaderName returns the header carrying the credential.
func (h *HeaderKey) HeaderName() string { return h.header }

// Value returns the configured key.
func (h *HeaderKey) Value(_ context.Context) (string, error) {
	if h.key == "" {
		return "", ErrNoCredential
	}
	return h.key, nil
}

var (
	_ Provider       = (*APIKey)(nil)
	_ HeaderProvider = (*HeaderKey)(nil)
)
