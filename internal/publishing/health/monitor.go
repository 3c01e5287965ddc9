package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/postfeed/internal/publishing/site"
)

// Pinger is an external dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// BuildSource exposes the latest build.
type BuildSource interface {
	Current() (*site.Build, error)
}

// Monitor aggregates health status from the site and its dependencies.
type Monitor struct {
	site         BuildSource
	sourceName   string
	dependencies map[string]Pinger
	cacheFor     time.Duration
	lastCheck    time.Time
	lastReport   HealthReport
	mu           sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(s BuildSource, sourceName string, dependencies map[string]Pinger) *Monitor {
	if dependencies == nil {
		dependencies = make(map[string]Pinger)
	}
	return &Monitor{
		site:         s,
		sourceName:   sourceName,
		dependencies: dependencies,
		cacheFor:     5 * time.Second,
	}
}

// CheckHealth builds a report. Dependency pings are rate limited; the feed
// state is always current.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := HealthReport{
		Feed:         m.feedHealth(),
		Dependencies: m.lastReport.Dependencies,
	}

	if m.lastReport.Dependencies == nil || time.Since(m.lastCheck) >= m.cacheFor {
		report.Dependencies = make(map[string]DependencyHealth, len(m.dependencies))
		for name, p := range m.dependencies {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := p.Ping(pingCtx)
			cancel()

			dep := DependencyHealth{Status: StatusHealthy}
			if err != nil {
				dep = DependencyHealth{Status: StatusDegraded, Error: err.Error()}
			}
			report.Dependencies[name] = dep
		}
		m.lastCheck = time.Now()
	}

	// Aggregate status (worst case wins)
	report.SystemStatus = report.Feed.Status
	for _, dep := range report.Dependencies {
		if worse(dep.Status, report.SystemStatus) {
			report.SystemStatus = dep.Status
		}
	}

	m.lastReport = report
	return report
}

func (m *Monitor) feedHealth() FeedHealth {
	fh := FeedHealth{Source: m.sourceName}

	b, err := m.site.Current()
	if err != nil {
		fh.Status = StatusCritical
		fh.Error = err.Error()
		return fh
	}

	builtAt := b.BuiltAt
	fh.Posts = len(b.Posts)
	fh.Fallback = b.Fallback
	fh.BrokenMedia = b.BrokenMedia()
	fh.BuiltAt = &builtAt
	fh.Status = StatusHealthy

	if b.Fallback {
		fh.Status = StatusDegraded
		if b.Err != nil {
			fh.Error = b.Err.Error()
		}
	}
	return fh
}

func worse(a, b SystemStatus) bool {
	return rank(a) > rank(b)
}

func rank(s SystemStatus) int {
	switch s {
	case StatusCritical:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}
