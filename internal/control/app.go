package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/text/language"

	"github.com/vietddude/postfeed/internal/core/config"
	"github.com/vietddude/postfeed/internal/core/worker"
	"github.com/vietddude/postfeed/internal/infra/probe"
	redisclient "github.com/vietddude/postfeed/internal/infra/redis"
	"github.com/vietddude/postfeed/internal/infra/storage"
	"github.com/vietddude/postfeed/internal/infra/storage/memory"
	"github.com/vietddude/postfeed/internal/infra/storage/postgres"
	"github.com/vietddude/postfeed/internal/publishing/feed"
	"github.com/vietddude/postfeed/internal/publishing/health"
	"github.com/vietddude/postfeed/internal/publishing/media"
	"github.com/vietddude/postfeed/internal/publishing/render"
	"github.com/vietddude/postfeed/internal/publishing/server"
	"github.com/vietddude/postfeed/internal/publishing/site"
)

// App wires the feed source, media resolver, renderer and HTTP server.
type App struct {
	cfg         *config.AppConfig
	feedLoader  *feed.Loader
	resolver    *media.Resolver
	site        *site.Site
	healthMon   *health.Monitor
	server      *server.Server
	watcher     *feed.FileWatcher
	pruner      *worker.Pruner
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new App with all dependencies initialized.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{cfg: cfg, log: slog.Default()}
	deps := make(map[string]health.Pinger)

	// 1. Storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		a.db = db
		deps["postgres"] = health.PingFunc(db.Health)

		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}
		a.log.Info("Using PostgreSQL storage")
	}

	var cache storage.MediaCache
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		a.redisClient = client
		deps["redis"] = client
		cache = redisclient.NewMediaCache(client)
		a.log.Info("Using Redis media cache")
	} else {
		memCache := memory.NewMediaCache(memory.NewMemoryStorage())
		a.pruner = worker.NewPruner(memCache, cfg.Media.CacheTTL)
		cache = memCache
	}

	// 2. Feed
	source, err := a.newSource()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.feedLoader = feed.NewLoader(source)
	if cfg.Feed.Watch {
		a.watcher = feed.NewFileWatcher(cfg.Feed.Path, 0)
	}

	// 3. Media
	loader := media.NewLoader(media.RetryConfig{
		MaxAttempts: cfg.Media.MaxAttempts,
		BaseDelay:   cfg.Media.BaseDelay,
	})
	a.resolver = media.NewResolver(
		loader,
		probe.NewHTTPProber(cfg.Media.BaseURL, cfg.Media.ProbeTimeout),
		cache,
		media.ResolverConfig{
			Concurrency: cfg.Media.Concurrency,
			CacheTTL:    cfg.Media.CacheTTL,
			Timeout:     cfg.Media.ResolveTimeout,
		},
	)

	// 4. Rendering
	lang, err := language.Parse(cfg.Feed.Language)
	if err != nil {
		a.log.Warn("Unknown feed language, using Dutch", "language", cfg.Feed.Language)
		lang = language.Dutch
	}
	renderer, err := render.New(render.Options{Title: cfg.Feed.Title, Language: lang})
	if err != nil {
		a.Close()
		return nil, err
	}

	var resolver *media.Resolver
	if cfg.Media.Resolve {
		resolver = a.resolver
	}
	a.site = site.New(site.NewBuilder(a.feedLoader, resolver, renderer))

	// 5. Health & HTTP
	a.healthMon = health.NewMonitor(a.site, source.Name(), deps)
	a.server = server.NewServer(a.site, a.healthMon, server.Options{
		Port:             cfg.Server.Port,
		RefreshToken:     cfg.Server.RefreshToken,
		RefreshPerMinute: cfg.Server.RefreshPerMinute,
	})

	return a, nil
}

func (a *App) newSource() (feed.Source, error) {
	switch a.cfg.Feed.Source {
	case config.SourceFile:
		return feed.NewFileSource(a.cfg.Feed.Path), nil
	case config.SourceHTTP:
		return feed.NewHTTPSource(a.cfg.Feed.URL, a.cfg.Feed.Timeout), nil
	case config.SourceDatabase:
		if a.db == nil {
			return nil, fmt.Errorf("feed source %q needs database.url", config.SourceDatabase)
		}
		repo := postgres.NewPostRepo(a.db, a.cfg.Database.Table)
		return feed.NewRepoSource(repo, a.cfg.Feed.Limit), nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", a.cfg.Feed.Source)
	}
}

// Site returns the rendered site.
func (a *App) Site() *site.Site { return a.site }

// Feed returns the feed loader.
func (a *App) Feed() *feed.Loader { return a.feedLoader }

// Resolver returns the media resolver, even when page builds skip it.
func (a *App) Resolver() *media.Resolver { return a.resolver }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Start builds the page once and starts the server and background refreshers.
func (a *App) Start(ctx context.Context) error {
	if err := a.site.Refresh(ctx); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	ctx, a.cancel = context.WithCancel(ctx)

	a.goRun(func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("HTTP server failed", "error", err)
		}
	})

	if a.watcher != nil {
		a.goRun(func() {
			err := a.watcher.Run(ctx, func() {
				a.log.Info("Feed file changed, rebuilding", "path", a.cfg.Feed.Path)
				_ = a.site.Refresh(ctx)
			})
			if err != nil {
				a.log.Error("Feed watcher failed", "error", err)
			}
		})
	}

	if a.cfg.Feed.RefreshInterval > 0 {
		a.goRun(func() { a.site.RunRefresher(ctx, a.cfg.Feed.RefreshInterval) })
	}

	if a.pruner != nil {
		a.goRun(func() { a.pruner.Start(ctx) })
	}

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.log.Info("Postfeed started",
		"port", a.cfg.Server.Port,
		"source", a.feedLoader.Source().Name(),
		"resolve_media", a.cfg.Media.Resolve)
	return nil
}

// Stop shuts the server down, waits for background work and closes clients.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping postfeed...")

	if a.cancel != nil {
		a.cancel()
	}
	err := a.server.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("Background tasks did not stop in time")
	}

	a.Close()
	return err
}

// Close releases database and Redis connections.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
		a.redisClient = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
		a.db = nil
	}
}

func (a *App) goRun(f func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		f()
	}()
}
