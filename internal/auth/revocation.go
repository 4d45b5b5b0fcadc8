// AngelaMos | 2026
// revocation.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList holds access-token ids that were signed out before they
// expired.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const blacklistPrefix = "blacklist:"

type redisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) RevocationList {
	return &redisRevocations{client: client}
}

func (r *redisRevocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (r *redisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists > 0, nil
}

type memoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryRevocations is the single-process list used when no redis is
// configured.
func NewMemoryRevocations() RevocationList {
	return &memoryRevocations{entries: make(map[string]time.Time)}
}

func (m *memoryRevocations) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, id)
		}
	}
	if now.Before(until) {
		m.entries[jti] = until
	}
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[jti]
	return ok && time.Now().Before(exp), nil
}
