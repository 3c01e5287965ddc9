package media

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/infra/storage"
	"github.com/vietddude/postfeed/internal/publishing/metrics"
)

// Prober loads a media source and reports whether it rendered.
type Prober interface {
	Probe(ctx context.Context, src string) error
}

// ResolverConfig holds resolver settings.
type ResolverConfig struct {
	Concurrency int
	CacheTTL    time.Duration
	// Timeout bounds a whole resolution, retries included.
	Timeout time.Duration
}

// DefaultResolverConfig provides sensible defaults.
var DefaultResolverConfig = ResolverConfig{
	Concurrency: 8,
	CacheTTL:    10 * time.Minute,
	Timeout:     15 * time.Second,
}

// Resolver settles load targets by probing every binding of a slot and
// feeding the outcome back into the retry policy.
type Resolver struct {
	loader *Loader
	prober Prober
	cache  storage.MediaCache
	cfg    ResolverConfig
	log    *slog.Logger
}

// NewResolver creates a new Resolver. cache may be nil.
func NewResolver(loader *Loader, prober Prober, cache storage.MediaCache, cfg ResolverConfig) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultResolverConfig.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultResolverConfig.Timeout
	}
	return &Resolver{
		loader: loader,
		prober: prober,
		cache:  cache,
		cfg:    cfg,
		log:    slog.Default(),
	}
}

// Resolve returns the settled binding for target. It never fails: when ctx
// ends first the slot is detached and its current binding is returned.
func (r *Resolver) Resolve(ctx context.Context, target domain.LoadTarget) domain.Resolution {
	if target.IsPlaceholder() {
		return r.loader.AttemptLoad(target).Resolution(time.Now())
	}

	if res, ok := r.cached(ctx, target); ok {
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	slot := r.loader.AttemptLoadFunc(target, func(s *Slot, src string) {
		if src == target.FallbackReference {
			return
		}
		go r.probe(ctx, s, src)
	})

	select {
	case <-slot.Done():
	case <-ctx.Done():
		slot.Detach()
		r.log.Warn("Media resolution interrupted", "src", target.Reference, "error", ctx.Err())
	}

	res := slot.Resolution(time.Now())
	metrics.MediaResolutionsTotal.WithLabelValues(string(res.State)).Inc()

	if res.State.IsTerminal() {
		r.store(context.WithoutCancel(ctx), res)
	}
	return res
}

// ResolveAll resolves targets concurrently. Results keep the input order.
func (r *Resolver) ResolveAll(ctx context.Context, targets []domain.LoadTarget) []domain.Resolution {
	out := make([]domain.Resolution, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, t := range targets {
		g.Go(func() error {
			out[i] = r.Resolve(gctx, t)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (r *Resolver) probe(ctx context.Context, s *Slot, src string) {
	start := time.Now()
	err := r.prober.Probe(ctx, src)
	latency := time.Since(start).Seconds()

	if err != nil {
		metrics.ProbeLatency.WithLabelValues("failure").Observe(latency)
		r.log.Debug("Media probe failed", "src", src, "error", err)
		s.Fail()
		return
	}
	metrics.ProbeLatency.WithLabelValues("success").Observe(latency)
	s.Succeed()
}

func (r *Resolver) cached(ctx context.Context, target domain.LoadTarget) (domain.Resolution, bool) {
	if r.cache == nil {
		return domain.Resolution{}, false
	}

	ref := target.Reference
	res, err := r.cache.Get(ctx, ref)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheMiss) {
			r.log.Warn("Media cache lookup failed", "src", ref, "error", err)
		}
		metrics.MediaCacheTotal.WithLabelValues("miss").Inc()
		return domain.Resolution{}, false
	}

	metrics.MediaCacheTotal.WithLabelValues("hit").Inc()

	// The same reference can back slots with different placeholders.
	if res.State == domain.SlotStateFallback {
		res.Source = target.FallbackReference
		if n := len(res.Bindings); n > 0 {
			res.Bindings[n-1] = target.FallbackReference
		}
	}
	return *res, true
}

func (r *Resolver) store(ctx context.Context, res domain.Resolution) {
	if r.cache == nil || r.cfg.CacheTTL <= 0 {
		return
	}
	if err := r.cache.Set(ctx, &res, r.cfg.CacheTTL); err != nil {
		r.log.Warn("Failed to cache media resolution", "src", res.Reference, "error", err)
	}
}
