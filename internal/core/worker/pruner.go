package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/postfeed/internal/infra/storage"
)

// Pruner evicts expired media resolutions from caches without their own TTL.
type Pruner struct {
	cache storage.ExpiringCache
	ttl   time.Duration
	log   *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(cache storage.ExpiringCache, ttl time.Duration) *Pruner {
	return &Pruner{
		cache: cache,
		ttl:   ttl,
		log:   slog.Default(),
	}
}

// Interval is how often Start sweeps: a tenth of the TTL, between one minute
// and one hour.
func (p *Pruner) Interval() time.Duration {
	interval := min(p.ttl/10, 1*time.Hour)
	return max(interval, 1*time.Minute)
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.ttl <= 0 {
		return // Caching disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune runs a single sweep.
func (p *Pruner) Prune(ctx context.Context) {
	n, err := p.cache.DeleteExpired(ctx)
	if err != nil {
		p.log.Error("Failed to prune media cache", "error", err)
		return
	}
	if n > 0 {
		p.log.Debug("Pruned media cache", "expired", n)
	}
}
