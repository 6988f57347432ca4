package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultExpiryLeeway = 10 * time.Second

// BearerToken is a validated-token provider: it holds a JWT and refuses to
// hand it out once expired, so requests that would be rejected with 401
// never leave the client. Only the expiry claim is checked; verifying the
// signature is the gateway's job.
type BearerToken struct {
	token  string
	leeway time.Duration
	now    func() time.Time
}

// BearerTokenOption customizes a BearerToken provider.
type BearerTokenOption func(*BearerToken)

// WithExpiryLeeway treats the token as expired when it is within d of its
// expiry, so a token that would expire mid-flight is refused up front.
func WithExpiryLeeway(d time.Duration) BearerTokenOption {
	return func(t *BearerToken) { t.leeway = d }
}

// NewBearerToken creates a provider around a JWT bearer token.
func NewBearerToken(token string, opts ...BearerTokenOption) *BearerToken {
	t := &BearerToken{
		token:  token,
		leeway: defaultExpiryLeeway,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Scheme returns the authorization scheme.
func (t *BearerToken) Scheme() string { return "Bearer" }

// Value returns the token after checking its expiry claim. Tokens without
// an expiry claim are passed through.
func (t *BearerToken) Value(_ context.Context) (string, error) {
	if t.token == "" {
		return "", ErrNoCredential
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.token, claims); err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("auth: read expiry claim: %w", err)
	}
	if exp != nil && t.now().Add(t.leeway).After(exp.Time) {
		return "", ErrTokenExpired
	}

	return t.token, nil
}

var _ Provider = (*BearerToken)(nil)
