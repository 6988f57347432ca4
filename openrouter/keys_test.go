package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/routerkit/auth"
	"github.com/kbukum/routerkit/logger"
)

func TestCurrentKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/key" {
			t.Errorf("request = %s %s, want GET /key", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"label":"ci","usage":1.5,"limit":10,"is_free_tier":false,"rate_limit":{"requests":200,"interval":"10s"}}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	key, err := c.CurrentKey(context.Background())
	if err != nil {
		t.Fatalf("CurrentKey: %v", err)
	}
	if key.Label != "ci" || key.Usage != 1.5 {
		t.Errorf("key = %+v", key)
	}
	if key.Limit == nil || *key.Limit != 10 {
		t.Errorf("limit = %v", key.Limit)
	}
	if key.RateLimit == nil || key.RateLimit.Requests != 200 || key.RateLimit.Interval != "10s" {
		t.Errorf("rate limit = %+v", key.RateLimit)
	}
}

func TestCurrentKeyUnlimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"label":"dev","usage":0,"limit":null,"is_free_tier":true}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	key, err := c.CurrentKey(context.Background())
	if err != nil {
		t.Fatalf("CurrentKey: %v", err)
	}
	if key.Limit != nil {
		t.Errorf("limit = %v, want nil", *key.Limit)
	}
	if !key.IsFreeTier {
		t.Error("IsFreeTier = false, want true")
	}
}

func TestExchangeAuthCode(t *testing.T) {
	pkce, err := auth.NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/keys" {
			t.Errorf("request = %s %s, want POST /auth/keys", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want unauthenticated exchange", got)
		}
		var body struct {
			Code                string `json:"code"`
			CodeVerifier        string `json:"code_verifier"`
			CodeChallengeMethod string `json:"code_challenge_method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Code != "auth-code-1" {
			t.Errorf("code = %q", body.Code)
		}
		if body.CodeVerifier != pkce.CodeVerifier || body.CodeChallengeMethod != "S256" {
			t.Errorf("pkce fields = %q / %q", body.CodeVerifier, body.CodeChallengeMethod)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"key":"sk-or-v1-granted"}`)
	}))
	defer srv.Close()

	// Key exchange happens before the caller has a key.
	c, err := New(Config{BaseURL: srv.URL, DisableRetry: true, Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	got, err := c.ExchangeAuthCode(context.Background(), "auth-code-1", pkce)
	if err != nil {
		t.Fatalf("ExchangeAuthCode: %v", err)
	}
	if got != "sk-or-v1-granted" {
		t.Errorf("key = %q", got)
	}
}

func TestExchangeAuthCodeWithoutPKCE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var wire map[string]any
		if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if _, present := wire["code_verifier"]; present {
			t.Error("code_verifier sent without PKCE")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"key":"sk-or-v1-plain"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	got, err := c.ExchangeAuthCode(context.Background(), "auth-code-2", nil)
	if err != nil {
		t.Fatalf("ExchangeAuthCode: %v", err)
	}
	if got != "sk-or-v1-plain" {
		t.Errorf("key = %q", got)
	}
}
