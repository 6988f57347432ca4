package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultRefreshSkew    = 30 * time.Second
	defaultRefreshTimeout = 30 * time.Second
	maxTokenResponseSize  = 1 << 20
)

// RefreshingTokenConfig configures a RefreshingToken provider.
type RefreshingTokenConfig struct {
	// TokenURL is the OAuth2 token endpoint used for refresh.
	TokenURL string
	// ClientID identifies this client at the token endpoint.
	ClientID string
	// ClientSecret is sent when the authorization server requires one.
	ClientSecret string
	// RefreshToken is the long-lived token exchanged for access tokens.
	RefreshToken string
	// AccessToken optionally seeds the provider with a current access token.
	AccessToken string
	// ExpiresAt is the expiry of the seeded access token. Zero means the
	// seeded token is used until the first refresh is forced by the server.
	ExpiresAt time.Time
	// RefreshSkew renews the access token this early. Defaults to 30s.
	RefreshSkew time.Duration
	// HTTPClient performs the refresh calls. Defaults to a 30s-timeout client.
	HTTPClient *http.Client
}

// RefreshingToken is an OAuth provider that renews its access token at the
// token endpoint when the held one is missing or about to expire. It is
// safe for concurrent use; concurrent calls during a refresh serialize and
// reuse the renewed token.
type RefreshingToken struct {
	mu           sync.Mutex
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	accessToken  string
	expiresAt    time.Time
	skew         time.Duration
	httpClient   *http.Client
	now          func() time.Time
}

// NewRefreshingToken creates a refreshable OAuth token provider.
func NewRefreshingToken(cfg RefreshingTokenConfig) (*RefreshingToken, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("auth: token url is required")
	}
	if cfg.RefreshToken == "" {
		return nil, fmt.Errorf("auth: refresh token is required")
	}

	skew := cfg.RefreshSkew
	if skew <= 0 {
		skew = defaultRefreshSkew
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRefreshTimeout}
	}

	return &RefreshingToken{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		accessToken:  cfg.AccessToken,
		expiresAt:    cfg.ExpiresAt,
		skew:         skew,
		httpClient:   httpClient,
		now:          time.Now,
	}, nil
}

// Scheme returns the authorization scheme.
func (r *RefreshingToken) Scheme() string { return "Bearer" }

// Value returns the current access token, refreshing it first when it is
// missing or inside the expiry skew window.
func (r *RefreshingToken) Value(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && (r.expiresAt.IsZero() || r.now().Add(r.skew).Before(r.expiresAt)) {
		return r.accessToken, nil
	}
	if err := r.refresh(ctx); err != nil {
		return "", err
	}
	return r.accessToken, nil
}

// tokenResponse is the token endpoint's reply.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// refresh exchanges the refresh token for a new access token.
// Callers must hold r.mu.
func (r *RefreshingToken) refresh(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", r.refreshToken)
	if r.clientID != "" {
		form.Set("client_id", r.clientID)
	}
	if r.clientSecret != "" {
		form.Set("client_secret", r.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("auth: build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth: refresh token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return fmt.Errorf("auth: read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("auth: refresh token: token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("auth: decode refresh response: %w", err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("auth: token endpoint returned no access token")
	}

	r.accessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		r.refreshToken = tr.RefreshToken
	}
	if tr.ExpiresIn > 0 {
		r.expiresAt = r.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	} else {
		r.expiresAt = time.Time{}
	}
	return nil
}

var _ Provider = (*RefreshingToken)(nil)
