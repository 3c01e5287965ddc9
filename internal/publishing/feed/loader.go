package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/publishing/metrics"
)

// Result is a loaded feed.
type Result struct {
	Posts    []domain.Post
	Fallback bool  // Posts holds the single fallback entry
	Err      error // cause of the fallback
	LoadedAt time.Time
}

// Loader loads a feed and never fails: errors are replaced by the fallback entry.
type Loader struct {
	source Source
	log    *slog.Logger
	now    func() time.Time
}

// NewLoader creates a new Loader.
func NewLoader(source Source) *Loader {
	return &Loader{
		source: source,
		log:    slog.Default(),
		now:    time.Now,
	}
}

// Source returns the underlying source.
func (l *Loader) Source() Source {
	return l.source
}

// Load reads the feed.
func (l *Loader) Load(ctx context.Context) Result {
	posts, err := l.source.Posts(ctx)
	if err != nil {
		l.log.Error("Error loading posts", "source", l.source.Name(), "error", err)
		metrics.FeedLoadsTotal.WithLabelValues(l.source.Name(), "fallback").Inc()
		return Result{
			Posts:    []domain.Post{domain.FallbackPost()},
			Fallback: true,
			Err:      err,
			LoadedAt: l.now(),
		}
	}

	metrics.FeedLoadsTotal.WithLabelValues(l.source.Name(), "ok").Inc()
	l.log.Debug("Loaded posts", "source", l.source.Name(), "count", len(posts))
	return Result{Posts: posts, LoadedAt: l.now()}
}
