package site

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotBuilt is returned before the first successful build.
var ErrNotBuilt = errors.New("site not built yet")

// Site holds the latest build and rebuilds it on demand.
type Site struct {
	builder *Builder
	current atomic.Pointer[Build]
	lastErr atomic.Pointer[error]

	// Serialises rebuilds; requests keep reading the previous build.
	mu  sync.Mutex
	log *slog.Logger
}

// New creates a new Site.
func New(builder *Builder) *Site {
	return &Site{builder: builder, log: slog.Default()}
}

// Current returns the latest build.
func (s *Site) Current() (*Build, error) {
	if b := s.current.Load(); b != nil {
		return b, nil
	}
	if err := s.lastErr.Load(); err != nil {
		return nil, *err
	}
	return nil, ErrNotBuilt
}

// Refresh rebuilds the page and swaps it in.
func (s *Site) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.builder.Build(ctx)
	if err != nil {
		s.lastErr.Store(&err)
		s.log.Error("Failed to render feed", "error", err)
		return err
	}
	s.current.Store(b)
	s.lastErr.Store(nil)
	return nil
}

// RunRefresher rebuilds every interval until ctx is done.
func (s *Site) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}
