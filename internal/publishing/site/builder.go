package site

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/publishing/feed"
	"github.com/vietddude/postfeed/internal/publishing/media"
	"github.com/vietddude/postfeed/internal/publishing/metrics"
	"github.com/vietddude/postfeed/internal/publishing/render"
)

// Build is one rendered version of the feed.
type Build struct {
	HTML     []byte
	Posts    []domain.Post
	Media    []render.Media
	Fallback bool
	Err      error // feed load error behind a fallback build
	BuiltAt  time.Time
	Duration time.Duration
}

// BrokenMedia counts image slots that fell back after failing.
func (b *Build) BrokenMedia() int {
	n := 0
	for _, m := range b.Media {
		if m.Image.Broken {
			n++
		}
		if m.Avatar.Broken {
			n++
		}
	}
	return n
}

// Builder loads the feed, settles every media slot and renders the page.
type Builder struct {
	loader   *feed.Loader
	resolver *media.Resolver
	renderer *render.Renderer
	log      *slog.Logger
}

// NewBuilder creates a new Builder. With a nil resolver every slot keeps its
// first binding.
func NewBuilder(loader *feed.Loader, resolver *media.Resolver, renderer *render.Renderer) *Builder {
	return &Builder{
		loader:   loader,
		resolver: resolver,
		renderer: renderer,
		log:      slog.Default(),
	}
}

// Build produces a new page. Only rendering itself can fail; feed and media
// errors are absorbed into the fallback entry and placeholders.
func (b *Builder) Build(ctx context.Context) (*Build, error) {
	start := time.Now()

	res := b.loader.Load(ctx)
	m := b.resolve(ctx, res.Posts)
	cards := b.renderer.Cards(res.Posts, m)

	var buf bytes.Buffer
	if err := b.renderer.RenderPage(&buf, cards); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	metrics.RenderDuration.Observe(duration.Seconds())
	metrics.FeedPosts.Set(float64(len(res.Posts)))

	build := &Build{
		HTML:     buf.Bytes(),
		Posts:    res.Posts,
		Media:    m,
		Fallback: res.Fallback,
		Err:      res.Err,
		BuiltAt:  start,
		Duration: duration,
	}
	b.log.Info("Feed rendered",
		"posts", len(res.Posts),
		"fallback", res.Fallback,
		"broken_media", build.BrokenMedia(),
		"duration", duration.Round(time.Millisecond))
	return build, nil
}

func (b *Builder) resolve(ctx context.Context, posts []domain.Post) []render.Media {
	out := make([]render.Media, len(posts))
	if b.resolver == nil {
		for i, p := range posts {
			out[i] = render.UnresolvedMedia(p)
		}
		return out
	}

	targets := make([]domain.LoadTarget, 0, 2*len(posts))
	for _, p := range posts {
		avatar, image := render.Targets(p)
		targets = append(targets, avatar, image)
	}

	resolved := b.resolver.ResolveAll(ctx, targets)
	for i := range posts {
		out[i] = render.Media{Avatar: resolved[2*i], Image: resolved[2*i+1]}
	}
	return out
}
