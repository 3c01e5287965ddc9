package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/publishing/render"
	"github.com/vietddude/postfeed/internal/publishing/site"
)

// =============================================================================
// Stubs
// =============================================================================

type stubSite struct {
	build *site.Build
}

func (s *stubSite) Current() (*site.Build, error) {
	if s.build == nil {
		return nil, site.ErrNotBuilt
	}
	return s.build, nil
}

type countingPinger struct {
	err   error
	calls int
}

func (p *countingPinger) Ping(ctx context.Context) error {
	p.calls++
	return p.err
}

// =============================================================================
// Tests
// =============================================================================

func TestCheckHealth_Healthy(t *testing.T) {
	s := &stubSite{build: &site.Build{
		Posts:   []domain.Post{{Author: "A"}},
		Media:   []render.Media{{Image: domain.Resolution{Broken: true}}},
		BuiltAt: time.Now(),
	}}
	m := NewMonitor(s, "file", map[string]Pinger{"redis": PingFunc(func(context.Context) error { return nil })})

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.SystemStatus)
	}
	if report.Feed.Posts != 1 || report.Feed.BrokenMedia != 1 {
		t.Errorf("unexpected feed health %+v", report.Feed)
	}
	if report.Dependencies["redis"].Status != StatusHealthy {
		t.Errorf("expected healthy redis, got %+v", report.Dependencies["redis"])
	}
}

func TestCheckHealth_WorstStatusWins(t *testing.T) {
	s := &stubSite{build: &site.Build{BuiltAt: time.Now()}}
	m := NewMonitor(s, "database", map[string]Pinger{
		"postgres": &countingPinger{err: errors.New("connection refused")},
	})

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
	if report.Dependencies["postgres"].Error != "connection refused" {
		t.Errorf("unexpected dependency health %+v", report.Dependencies["postgres"])
	}
}

func TestCheckHealth_NotBuiltIsCritical(t *testing.T) {
	m := NewMonitor(&stubSite{}, "file", nil)

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical, got %s", report.SystemStatus)
	}
}

func TestCheckHealth_RateLimitsPings(t *testing.T) {
	p := &countingPinger{}
	m := NewMonitor(&stubSite{build: &site.Build{}}, "file", map[string]Pinger{"redis": p})

	for i := 0; i < 3; i++ {
		m.CheckHealth(context.Background())
	}
	if p.calls != 1 {
		t.Errorf("expected 1 ping within the cache window, got %d", p.calls)
	}

	m.lastCheck = time.Now().Add(-time.Minute)
	m.CheckHealth(context.Background())
	if p.calls != 2 {
		t.Errorf("expected a fresh ping after the window, got %d", p.calls)
	}
}
