package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/infra/storage"
)

// MediaCache implements storage.MediaCache using Redis, so every instance
// serving the same feed shares probe results.
type MediaCache struct {
	rdb    *redis.Client
	prefix string
}

// NewMediaCache creates a new Redis-backed media cache.
func NewMediaCache(client *Client) *MediaCache {
	return &MediaCache{
		rdb:    client.rdb,
		prefix: client.prefix,
	}
}

// References can be long data URIs, so keys carry a digest instead.
func mediaKey(prefix, reference string) string {
	sum := sha256.Sum256([]byte(reference))
	return fmt.Sprintf("%s:media:%s", prefix, hex.EncodeToString(sum[:]))
}

// Get returns the cached resolution for reference.
func (c *MediaCache) Get(ctx context.Context, reference string) (*domain.Resolution, error) {
	data, err := c.rdb.Get(ctx, mediaKey(c.prefix, reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}

	var res domain.Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resolution: %w", err)
	}
	if res.Reference != reference {
		// Digest collision or foreign writer.
		return nil, storage.ErrCacheMiss
	}
	return &res, nil
}

// Set caches res for ttl.
func (c *MediaCache) Set(ctx context.Context, res *domain.Resolution, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal resolution: %w", err)
	}
	if err := c.rdb.Set(ctx, mediaKey(c.prefix, res.Reference), data, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Delete drops the cached resolution for reference.
func (c *MediaCache) Delete(ctx context.Context, reference string) error {
	return c.rdb.Del(ctx, mediaKey(c.prefix, reference)).Err()
}
