// AngelaMos | 2026
// cache.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix = "admin:"
	CacheTTL    = 5 * time.Minute
)

// Cache holds admin records between permission checks. Misses and failures
// fall through to the document store.
type Cache interface {
	Get(ctx context.Context, uid string) (*AdminUser, bool)
	Set(ctx context.Context, admin *AdminUser)
	Delete(ctx context.Context, uid string)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client, ttl: CacheTTL}
}

func (c *redisCache) Get(ctx context.Context, uid string) (*AdminUser, bool) {
	raw, err := c.client.Get(ctx, cachePrefix+uid).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "admin cache read failed", "uid", uid, "error", err)
		}
		return nil, false
	}

	var a AdminUser
	if err := json.Unmarshal(raw, &a); err != nil {
		slog.WarnContext(ctx, "drop undecodable admin cache entry", "uid", uid, "error", err)
		return nil, false
	}
	return &a, true
}

func (c *redisCache) Set(ctx context.Context, a *AdminUser) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cachePrefix+a.UID, raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "admin cache write failed", "uid", a.UID, "error", err)
	}
}

func (c *redisCache) Delete(ctx context.Context, uid string) {
	if err := c.client.Del(ctx, cachePrefix+uid).Err(); err != nil {
		slog.WarnContext(ctx, "admin cache invalidate failed", "uid", uid, "error", err)
	}
}

type noCache struct{}

// NoCache is used when no redis is configured.
func NoCache() Cache { return noCache{} }

func (noCache) Get(context.Context, string) (*AdminUser, bool) { return nil, false }

func (noCache) Set(context.Context, *AdminUser) {}

func (noCache) Delete(context.Context, string) {}
