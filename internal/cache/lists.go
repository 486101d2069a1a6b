// lists.go provides a Valkey-backed cache for the public published-list
// responses. The database stays the source of truth: the cache holds
// rendered JSON only, and every content mutation or sweep publish flushes
// it. A nil *ListCache disables caching entirely.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// listKeyPrefix is the Valkey key prefix for cached listings.
	listKeyPrefix = "lists:"

	// DefaultListTTL bounds staleness even if an invalidation is missed.
	DefaultListTTL = 5 * time.Minute
)

// ListCache caches public list responses in Valkey.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListCache creates a list cache backed by the given Valkey client.
func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	if ttl == 0 {
		ttl = DefaultListTTL
	}
	return &ListCache{client: client, ttl: ttl}
}

// Get retrieves a cached response body. Returns false on miss.
func (lc *ListCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if lc == nil {
		return nil, false
	}
	val, err := lc.client.Get(ctx, listKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("list cache get error", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores a response body for a key with the configured TTL.
func (lc *ListCache) Set(ctx context.Context, key string, body []byte) {
	if lc == nil {
		return
	}
	if err := lc.client.Set(ctx, listKeyPrefix+key, body, lc.ttl).Err(); err != nil {
		slog.Warn("list cache set error", "key", key, "error", err)
	}
}

// Invalidate removes all cached listings. Any mutation can change any
// listing (search and sort variants share entries), so the whole prefix
// is flushed.
func (lc *ListCache) Invalidate(ctx context.Context) {
	if lc == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, next, err := lc.client.Scan(ctx, cursor, listKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("list cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("list cache delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("list cache invalidated", "deleted", deleted)
	}
}
