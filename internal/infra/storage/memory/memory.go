package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/infra/storage"
)

type MemoryStorage struct {
	posts []domain.Post
	media map[string]cachedResolution
	now   func() time.Time
	mu    sync.RWMutex
}

type cachedResolution struct {
	res       domain.Resolution
	expiresAt time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		media: make(map[string]cachedResolution),
		now:   time.Now,
	}
}

// -----------------------------------------------------------------------------
// Post Repository
// -----------------------------------------------------------------------------

type PostRepo struct {
	store *MemoryStorage
}

func NewPostRepo(store *MemoryStorage) *PostRepo {
	return &PostRepo{store: store}
}

func (r *PostRepo) List(ctx context.Context, limit int) ([]domain.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	n := len(r.store.posts)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Post, n)
	copy(out, r.store.posts[:n])
	return out, nil
}

func (r *PostRepo) SaveBatch(ctx context.Context, posts []domain.Post) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.posts = append(r.store.posts, posts...)
	return nil
}

func (r *PostRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.posts), nil
}

// -----------------------------------------------------------------------------
// Media Cache
// -----------------------------------------------------------------------------

type MediaCache struct {
	store *MemoryStorage
}

func NewMediaCache(store *MemoryStorage) *MediaCache {
	return &MediaCache{store: store}
}

func (c *MediaCache) Get(ctx context.Context, reference string) (*domain.Resolution, error) {
	c.store.mu.RLock()
	entry, ok := c.store.media[reference]
	c.store.mu.RUnlock()

	if !ok || !c.store.now().Before(entry.expiresAt) {
		return nil, storage.ErrCacheMiss
	}
	res := entry.res
	res.Bindings = append([]string(nil), entry.res.Bindings...)
	return &res, nil
}

func (c *MediaCache) Set(ctx context.Context, res *domain.Resolution, ttl time.Duration) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	stored := *res
	stored.Bindings = append([]string(nil), res.Bindings...)
	c.store.media[res.Reference] = cachedResolution{
		res:       stored,
		expiresAt: c.store.now().Add(ttl),
	}
	return nil
}

func (c *MediaCache) Delete(ctx context.Context, reference string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.media, reference)
	return nil
}

// DeleteExpired drops entries whose TTL has passed and returns how many.
func (c *MediaCache) DeleteExpired(ctx context.Context) (int, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	now := c.store.now()
	n := 0
	for ref, entry := range c.store.media {
		if !now.Before(entry.expiresAt) {
			delete(c.store.media, ref)
			n++
		}
	}
	return n, nil
}
