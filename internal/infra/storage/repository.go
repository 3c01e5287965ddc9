package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/postfeed/internal/core/domain"
)

var (
	// ErrCacheMiss is returned when no resolution is cached for a reference
	ErrCacheMiss = errors.New("media cache miss")
)

// PostRepository handles post storage operations
type PostRepository interface {
	// List returns up to limit posts in feed order (limit <= 0 means all)
	List(ctx context.Context, limit int) ([]domain.Post, error)

	// SaveBatch stores posts
	SaveBatch(ctx context.Context, posts []domain.Post) error

	// Count returns the number of stored posts
	Count(ctx context.Context) (int, error)
}

// MediaCache stores settled media resolutions keyed by reference
type MediaCache interface {
	// Get returns the cached resolution or ErrCacheMiss
	Get(ctx context.Context, reference string) (*domain.Resolution, error)

	// Set caches a resolution for ttl
	Set(ctx context.Context, res *domain.Resolution, ttl time.Duration) error

	// Delete drops a cached resolution
	Delete(ctx context.Context, reference string) error
}

// ExpiringCache is a cache that does not evict expired entries on its own.
type ExpiringCache interface {
	DeleteExpired(ctx context.Context) (int, error)
}
