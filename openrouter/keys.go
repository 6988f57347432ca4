package openrouter

import (
	"context"
	"net/http"

	"github.com/kbukum/routerkit/auth"
	"github.com/kbukum/routerkit/transport"
)

// Key describes the API key making the current request.
type Key struct {
	Label      string        `json:"label"`
	Usage      float64       `json:"usage"`
	Limit      *float64      `json:"limit"`
	IsFreeTier bool          `json:"is_free_tier"`
	RateLimit  *KeyRateLimit `json:"rate_limit,omitempty"`
}

// KeyRateLimit is the key's request budget per interval, e.g. 200 per
// "10s".
type KeyRateLimit struct {
	Requests float64 `json:"requests"`
	Interval string  `json:"interval"`
}

// CurrentKey fetches metadata for the key the client authenticates with.
func (c *Client) CurrentKey(ctx context.Context) (*Key, error) {
	resp, err := transport.Do[dataEnvelope[Key]](ctx, c.transport, transport.Request{
		Method: http.MethodGet,
		Path:   "/key",
	})
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

type authCodeExchange struct {
	Code                string `json:"code"`
	CodeVerifier        string `json:"code_verifier,omitempty"`
	CodeChallengeMethod string `json:"code_challenge_method,omitempty"`
}

type authCodeGrant struct {
	Key string `json:"key"`
}

// ExchangeAuthCode trades an OAuth authorization code for a user-scoped
// API key. Pass the PKCE pair whose challenge was sent in the
// authorization URL, or nil when the flow did not use PKCE. The endpoint
// itself is unauthenticated, so this works on a client built without
// credentials.
func (c *Client) ExchangeAuthCode(ctx context.Context, code string, pkce *auth.PKCE) (string, error) {
	body := authCodeExchange{Code: code}
	if pkce != nil {
		body.CodeVerifier = pkce.CodeVerifier
		body.CodeChallengeMethod = pkce.CodeChallengeMethod
	}
	resp, err := transport.Do[authCodeGrant](ctx, c.transport, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/keys",
		Body:   body,
	})
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}
