package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/nebari-dev/authz/internal/config"
)

// expiryDelta keeps a cached token from being used right up to its expiry.
const expiryDelta = 30 * time.Second

// M2MClient obtains client-credential tokens for calling other services and
// reuses them until they expire (or until the configured cache time passes).
type M2MClient struct {
	cfg       clientcredentials.Config
	cache     TokenCache
	cacheTime time.Duration
	key       string
}

// NewM2MClient builds the credential provider. It is created once per process.
func NewM2MClient(cfg config.M2MConfig, cache TokenCache) (*M2MClient, error) {
	if cfg.TokenURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("m2m token url, client id and client secret are required")
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}

	params := url.Values{}
	if cfg.Audience != "" {
		params.Set("audience", cfg.Audience)
	}
	tokenURL := cfg.TokenURL
	if cfg.ProxyServerURL != "" {
		// The proxy forwards the request to the real token endpoint
		tokenURL = cfg.ProxyServerURL
		params.Set("auth0_url", cfg.TokenURL)
	}

	return &M2MClient{
		cfg: clientcredentials.Config{
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			TokenURL:       tokenURL,
			EndpointParams: params,
			AuthStyle:      oauth2.AuthStyleInParams,
		},
		cache:     cache,
		cacheTime: time.Duration(cfg.TokenCacheTime) * time.Second,
		key:       fmt.Sprintf("authz:m2m:%s:%s", cfg.ClientID, cfg.Audience),
	}, nil
}

// Token returns a valid machine token, fetching a new one when the cache is empty.
func (m *M2MClient) Token(ctx context.Context) (string, error) {
	cached, ok, err := m.cache.Get(ctx, m.key)
	if err != nil {
		slog.Warn("M2M token cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	token, err := m.cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch m2m token: %w", err)
	}

	if ttl := m.ttl(token); ttl > 0 {
		if err := m.cache.Set(ctx, m.key, token.AccessToken, ttl); err != nil {
			slog.Warn("M2M token cache write failed", "error", err)
		}
	}
	return token.AccessToken, nil
}

func (m *M2MClient) ttl(token *oauth2.Token) time.Duration {
	ttl := m.cacheTime
	if !token.Expiry.IsZero() {
		untilExpiry := time.Until(token.Expiry) - expiryDelta
		if ttl <= 0 || untilExpiry < ttl {
			ttl = untilExpiry
		}
	}
	return ttl
}

// AuditIdentity is the identity recorded for work performed by this service
// itself, and the identity machine callers are rewritten to.
func AuditIdentity(cfg config.M2MConfig) *Identity {
	return &Identity{
		UserID:    cfg.AuditUserID,
		Handle:    cfg.AuditHandle,
		IsMachine: true,
	}
}
