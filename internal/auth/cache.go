package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

// TokenCache stores machine tokens between requests.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

type cachedToken struct {
	token   string
	expires time.Time
}

// MemoryTokenCache is an in-process TokenCache.
type MemoryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	now    func() time.Time
}

// NewMemoryTokenCache creates an empty in-process cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]cachedToken), now: time.Now}
}

func (m *MemoryTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.tokens[key]
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(entry.expires) {
		delete(m.tokens, key)
		return "", false, nil
	}
	return entry.token, true, nil
}

func (m *MemoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = cachedToken{token: token, expires: m.now().Add(ttl)}
	return nil
}

// ValkeyTokenCache shares machine tokens between service instances.
type ValkeyTokenCache struct {
	client valkey.Client
}

// NewValkeyTokenCache connects to Valkey at addr and verifies the connection.
func NewValkeyTokenCache(addr string) (*ValkeyTokenCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	return &ValkeyTokenCache{client: client}, nil
}

func (v *ValkeyTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return token, true, nil
}

func (v *ValkeyTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds <= 0 {
		return nil
	}
	return v.client.Do(ctx, v.client.B().Set().Key(key).Value(token).ExSeconds(seconds).Build()).Error()
}

// Close releases the Valkey connection.
func (v *ValkeyTokenCache) Close() {
	v.client.Close()
}
