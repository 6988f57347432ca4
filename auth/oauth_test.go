package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func tokenEndpoint(t *testing.T, hits *atomic.Int32, token string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got == "" {
			t.Error("missing refresh_token")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
}

func TestRefreshingTokenRefreshesOnFirstUse(t *testing.T) {
	var hits atomic.Int32
	srv := tokenEndpoint(t, &hits, "fresh-token")
	defer srv.Close()

	p, err := NewRefreshingToken(RefreshingTokenConfig{
		TokenURL:     srv.URL,
		ClientID:     "cli",
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := p.Value(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "fresh-token" {
		t.Errorf("value = %q", v)
	}
	if hits.Load() != 1 {
		t.Errorf("token endpoint hits = %d, want 1", hits.Load())
	}

	// Second call is served from the cached token.
	if _, err := p.Value(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("token endpoint hits = %d, want 1", hits.Load())
	}
}

func TestRefreshingTokenSeededTokenSkipsRefresh(t *testing.T) {
	var hits atomic.Int32
	srv := tokenEndpoint(t, &hits, "fresh-token")
	defer srv.Close()

	p, err := NewRefreshingToken(RefreshingTokenConfig{
		TokenURL:     srv.URL,
		RefreshToken: "refresh-1",
		AccessToken:  "seeded",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := p.Value(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "seeded" {
		t.Errorf("value = %q, want seeded", v)
	}
	if hits.Load() != 0 {
		t.Errorf("token endpoint hits = %d, want 0", hits.Load())
	}
}

func TestRefreshingTokenExpiredSeedRefreshes(t *testing.T) {
	var hits atomic.Int32
	srv := tokenEndpoint(t, &hits, "fresh-token")
	defer srv.Close()

	p, err := NewRefreshingToken(RefreshingTokenConfig{
		TokenURL:     srv.URL,
		RefreshToken: "refresh-1",
		AccessToken:  "stale",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := p.Value(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "fresh-token" {
		t.Errorf("value = %q", v)
	}
}

func TestRefreshingTokenConcurrentSingleRefresh(t *testing.T) {
	var hits atomic.Int32
	srv := tokenEndpoint(t, &hits, "fresh-token")
	defer srv.Close()

	p, err := NewRefreshingToken(RefreshingTokenConfig{
		TokenURL:     srv.URL,
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Value(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if hits.Load() != 1 {
		t.Errorf("token endpoint hits = %d, want 1", hits.Load())
	}
}

func TestRefreshingTokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewRefreshingToken(RefreshingTokenConfig{
		TokenURL:     srv.URL,
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := p.Value(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}
}

func TestRefreshingTokenRotation(t *testing.T) {
	var current atomic.Value
	current.Store("refresh-1")
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("refresh_token"); got != current.Load().(string) {
			t.Errorf("refresh_token = %q, want %q", got, current.Load())
		}
		calls.Add(1)
		next := "refresh-2"
		current.Store(next)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "token-a",
			"expires_in":    0,
			"refresh_token": next,
		})
	}))
	defer srv.Close()

	p, err := NewRefreshingToken(RefreshingTokenConfig{
		TokenURL:     srv.URL,
		RefreshToken: "refresh-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// expires_in=0 leaves no expiry, so the renewed token is reused.
	if _, err := p.Value(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Value(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("refresh calls = %d, want 1", calls.Load())
	}
}

func TestNewRefreshingTokenValidation(t *testing.T) {
	if _, err := NewRefreshingToken(RefreshingTokenConfig{RefreshToken: "r"}); err == nil {
		t.Error("expected error for missing token url")
	}
	if _, err := NewRefreshingToken(RefreshingTokenConfig{TokenURL: "https://x"}); err == nil {
		t.Error("expected error for missing refresh token")
	}
}

func TestValueRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p, err := NewRefreshingToken(RefreshingTokenConfig{TokenURL: srv.URL, RefreshToken: "r"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Value(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
}
