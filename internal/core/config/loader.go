package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	var cfg AppConfig
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Feed.Source == "" {
		switch {
		case cfg.Feed.URL != "":
			cfg.Feed.Source = SourceHTTP
		default:
			cfg.Feed.Source = SourceFile
		}
	}
	if cfg.Feed.Source == SourceFile && cfg.Feed.Path == "" {
		cfg.Feed.Path = "data.json"
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 10 * time.Second
	}
	if cfg.Feed.Language == "" {
		cfg.Feed.Language = "nl"
	}

	// max_attempts: 0 keeps the default of two retries, negative disables them.
	if cfg.Media.MaxAttempts == 0 {
		cfg.Media.MaxAttempts = 2
	}
	if cfg.Media.BaseDelay == 0 {
		cfg.Media.BaseDelay = 300 * time.Millisecond
	}
	if cfg.Media.ProbeTimeout == 0 {
		cfg.Media.ProbeTimeout = 5 * time.Second
	}
	if cfg.Media.Concurrency == 0 {
		cfg.Media.Concurrency = 8
	}
	if cfg.Media.CacheTTL == 0 {
		cfg.Media.CacheTTL = 10 * time.Minute
	}
	if cfg.Media.ResolveTimeout == 0 {
		cfg.Media.ResolveTimeout = 15 * time.Second
	}
}

// Validate checks that the selected feed source is usable.
func (c *AppConfig) Validate() error {
	switch c.Feed.Source {
	case SourceFile:
		if c.Feed.Path == "" {
			return fmt.Errorf("feed.path is required for source %q", SourceFile)
		}
	case SourceHTTP:
		if c.Feed.URL == "" {
			return fmt.Errorf("feed.url is required for source %q", SourceHTTP)
		}
	case SourceDatabase:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for source %q", SourceDatabase)
		}
	default:
		return fmt.Errorf("unknown feed source %q", c.Feed.Source)
	}

	if c.Feed.Watch && c.Feed.Source != SourceFile {
		return fmt.Errorf("feed.watch requires source %q", SourceFile)
	}
	return nil
}
