package config

import (
	"time"

	redisclient "github.com/vietddude/postfeed/internal/infra/redis"
	"github.com/vietddude/postfeed/internal/infra/storage/postgres"
)

// Feed source kinds.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourceDatabase = "database"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Feed     FeedConfig         `yaml:"feed"`
	Media    MediaConfig        `yaml:"media"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port             int    `yaml:"port"`
	RefreshToken     string `yaml:"refresh_token"`      // empty disables POST /refresh
	RefreshPerMinute int    `yaml:"refresh_per_minute"` // default 6
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// FeedConfig selects where posts come from and how the page is refreshed.
type FeedConfig struct {
	Source          string        `yaml:"source"` // file, http, database
	Path            string        `yaml:"path"`
	URL             string        `yaml:"url"`
	Watch           bool          `yaml:"watch"`            // rebuild when Path changes
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 0 = never
	Timeout         time.Duration `yaml:"timeout"`
	Limit           int           `yaml:"limit"` // database source only, 0 = all
	Title           string        `yaml:"title"`
	Language        string        `yaml:"language"`
}

// MediaConfig holds the retry policy and resolver settings for images.
type MediaConfig struct {
	Resolve        bool          `yaml:"resolve"` // probe sources before rendering
	MaxAttempts    int           `yaml:"max_attempts"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	BaseURL        string        `yaml:"base_url"` // resolves relative sources
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	Concurrency    int           `yaml:"concurrency"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout"`
}
