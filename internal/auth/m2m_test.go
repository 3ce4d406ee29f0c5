package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nebari-dev/authz/internal/config"
)

func newTokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected grant_type %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("client_id") != "client" || r.PostForm.Get("client_secret") != "secret" {
			t.Errorf("expected credentials in form, got %v", r.PostForm)
		}
		if r.PostForm.Get("audience") != "https://m2m.topcoder-dev.com/" {
			t.Errorf("unexpected audience %q", r.PostForm.Get("audience"))
		}
		n := calls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("token-%d", n),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
}

func testM2MConfig(tokenURL string) config.M2MConfig {
	return config.M2MConfig{
		TokenURL:       tokenURL,
		Audience:       "https://m2m.topcoder-dev.com/",
		ClientID:       "client",
		ClientSecret:   "secret",
		TokenCacheTime: 86400,
	}
}

func TestM2MClient_CachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenServer(t, &calls)
	defer srv.Close()

	client, err := NewM2MClient(testM2MConfig(srv.URL), NewMemoryTokenCache())
	if err != nil {
		t.Fatalf("NewM2MClient: %v", err)
	}

	first, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	second, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}

	if first != "token-1" || second != first {
		t.Errorf("expected cached token-1, got %q then %q", first, second)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 token request, got %d", calls.Load())
	}
}

func TestM2MClient_Proxy(t *testing.T) {
	var calls atomic.Int32
	var gotAuth0URL string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotAuth0URL = r.PostForm.Get("auth0_url")
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "proxied",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer proxy.Close()

	cfg := testM2MConfig("https://topcoder-dev.auth0.com/oauth/token")
	cfg.ProxyServerURL = proxy.URL

	client, err := NewM2MClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewM2MClient: %v", err)
	}

	token, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "proxied" {
		t.Errorf("expected proxied token, got %q", token)
	}
	if gotAuth0URL != cfg.TokenURL {
		t.Errorf("expected auth0_url %q, got %q", cfg.TokenURL, gotAuth0URL)
	}
}

func TestNewM2MClient_RequiresCredentials(t *testing.T) {
	if _, err := NewM2MClient(config.M2MConfig{TokenURL: "http://x"}, nil); err == nil {
		t.Error("expected error without client credentials")
	}
}

func TestMemoryTokenCache_Expiry(t *testing.T) {
	cache := NewMemoryTokenCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	if err := cache.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if got, ok, _ := cache.Get(ctx, "k"); !ok || got != "v" {
		t.Errorf("expected cached value, got %q ok=%v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}
}
