package media

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/vietddude/postfeed/internal/core/domain"
)

// =============================================================================
// Fake Scheduler
// =============================================================================

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
	sched   *fakeScheduler
}

func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	mu      sync.Mutex
	elapsed time.Duration
	timers  []*fakeTimer
	delays  []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.elapsed + d, f: f, sched: s}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

// Advance moves time forward and fires every due timer in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.elapsed += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.elapsed {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func (s *fakeScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestLoader() (*Loader, *fakeScheduler) {
	sched := &fakeScheduler{}
	l := NewLoader(DefaultRetryConfig,
		WithScheduler(sched),
		WithClock(func() time.Time { return fixedNow }),
	)
	return l, sched
}

const (
	testRef      = "https://cdn.example.com/p/1.jpg"
	testFallback = "data:image/svg+xml;utf8,placeholder"
)

// =============================================================================
// Loader Tests
// =============================================================================

func TestAttemptLoad_EmptyReference(t *testing.T) {
	l, sched := newTestLoader()

	var seen []string
	s := l.AttemptLoadFunc(domain.LoadTarget{FallbackReference: testFallback}, func(_ *Slot, src string) {
		seen = append(seen, src)
	})

	if diff := cmp.Diff([]string{testFallback}, seen); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
	if s.State() != domain.SlotStateFallback {
		t.Errorf("expected fallback state, got %s", s.State())
	}
	if s.Broken() {
		t.Error("placeholder slot should not be marked broken")
	}
	if s.Attempts() != 0 {
		t.Errorf("expected 0 attempts, got %d", s.Attempts())
	}
	if len(sched.Delays()) != 0 {
		t.Errorf("expected no timers, got %v", sched.Delays())
	}

	select {
	case <-s.Done():
	default:
		t.Error("placeholder slot should be done immediately")
	}
}

func TestAttemptLoad_ReferenceEqualsFallback(t *testing.T) {
	l, sched := newTestLoader()

	s := l.AttemptLoad(domain.LoadTarget{Reference: testFallback, FallbackReference: testFallback})
	s.Fail()

	if diff := cmp.Diff([]string{testFallback}, s.Bindings()); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
	if len(sched.Delays()) != 0 {
		t.Errorf("fallback reference must never be retried, got timers %v", sched.Delays())
	}
}

func TestAttemptLoad_AlwaysFails(t *testing.T) {
	l, sched := newTestLoader()
	target := domain.LoadTarget{Reference: testRef, FallbackReference: testFallback}
	retry := RetryURI(testRef, fixedNow)

	s := l.AttemptLoad(target)
	s.Fail()

	sched.Advance(299 * time.Millisecond)
	if got := len(s.Bindings()); got != 1 {
		t.Fatalf("retry fired early: %d bindings", got)
	}
	sched.Advance(time.Millisecond)
	if s.Source() != retry {
		t.Fatalf("expected retry binding %q, got %q", retry, s.Source())
	}

	s.Fail()
	sched.Advance(599 * time.Millisecond)
	if got := len(s.Bindings()); got != 2 {
		t.Fatalf("second retry fired early: %d bindings", got)
	}
	sched.Advance(time.Millisecond)

	s.Fail()

	want := []string{testRef, retry, retry, testFallback}
	if diff := cmp.Diff(want, s.Bindings()); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{300 * time.Millisecond, 600 * time.Millisecond}, sched.Delays()); diff != "" {
		t.Errorf("backoff mismatch (-want +got):\n%s", diff)
	}
	if s.State() != domain.SlotStateFallback || !s.Broken() {
		t.Errorf("expected broken fallback, got state=%s broken=%v", s.State(), s.Broken())
	}
}

func TestAttemptLoad_SucceedsOnFirstRetry(t *testing.T) {
	l, sched := newTestLoader()

	s := l.AttemptLoad(domain.LoadTarget{Reference: testRef, FallbackReference: testFallback})
	s.Fail()
	sched.Advance(300 * time.Millisecond)
	s.Succeed()

	sched.Advance(time.Hour)

	if got := len(s.Bindings()); got != 2 {
		t.Errorf("expected 2 bindings, got %d: %v", got, s.Bindings())
	}
	if s.State() != domain.SlotStateLoaded {
		t.Errorf("expected loaded, got %s", s.State())
	}
	if len(sched.Delays()) != 1 {
		t.Errorf("expected a single retry timer, got %v", sched.Delays())
	}
}

func TestFail_IdempotentAfterFallback(t *testing.T) {
	l, sched := newTestLoader()

	s := l.AttemptLoad(domain.LoadTarget{Reference: testRef, FallbackReference: testFallback})
	for i := 0; i < 2; i++ {
		s.Fail()
		sched.Advance(time.Second)
	}
	s.Fail()

	before := s.Bindings()
	for i := 0; i < 5; i++ {
		s.Fail()
		sched.Advance(time.Second)
	}

	if diff := cmp.Diff(before, s.Bindings()); diff != "" {
		t.Errorf("bindings changed after fallback (-want +got):\n%s", diff)
	}
	if len(before) != 4 {
		t.Errorf("expected 4 bindings, got %d", len(before))
	}
}

func TestFail_IgnoredWhileRetryPending(t *testing.T) {
	l, sched := newTestLoader()

	s := l.AttemptLoad(domain.LoadTarget{Reference: testRef, FallbackReference: testFallback})
	s.Fail()
	s.Fail()
	s.Fail()

	if got := sched.Delays(); len(got) != 1 {
		t.Errorf("expected one pending retry, got %v", got)
	}
	if s.Attempts() != 1 {
		t.Errorf("expected 1 attempt, got %d", s.Attempts())
	}
}

func TestDetach_CancelsPendingRetry(t *testing.T) {
	l, sched := newTestLoader()

	s := l.AttemptLoad(domain.LoadTarget{Reference: testRef, FallbackReference: testFallback})
	s.Fail()
	s.Detach()
	sched.Advance(time.Second)

	if diff := cmp.Diff([]string{testRef}, s.Bindings()); diff != "" {
		t.Errorf("detached slot was rebound (-want +got):\n%s", diff)
	}
	select {
	case <-s.Done():
	default:
		t.Error("detached slot should be done")
	}
}

func TestDetach_RetryFiringAfterStopIsNoop(t *testing.T) {
	l, _ := newTestLoader()

	s := l.AttemptLoad(domain.LoadTarget{Reference: testRef, FallbackReference: testFallback})
	s.Fail()
	s.Detach()

	// Simulate a timer that already fired before Stop took effect.
	s.applyRetry(RetryURI(testRef, fixedNow))

	if got := len(s.Bindings()); got != 1 {
		t.Errorf("expected 1 binding, got %d", got)
	}
}

func TestAttemptLoad_NoRetriesWhenDisabled(t *testing.T) {
	sched := &fakeScheduler{}
	l := NewLoader(RetryConfig{MaxAttempts: -1}, WithScheduler(sched))

	s := l.AttemptLoad(domain.LoadTarget{Reference: testRef, FallbackReference: testFallback})
	s.Fail()

	if diff := cmp.Diff([]string{testRef, testFallback}, s.Bindings()); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestAttemptLoad_SystemSchedulerSettles(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLoader(RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond})
	s := l.AttemptLoadFunc(
		domain.LoadTarget{Reference: testRef, FallbackReference: testFallback},
		func(s *Slot, src string) {
			if src != testFallback {
				go s.Fail()
			}
		},
	)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("slot did not settle")
	}

	if s.Source() != testFallback {
		t.Errorf("expected fallback, got %q", s.Source())
	}
	if got := len(s.Bindings()); got != 4 {
		t.Errorf("expected 4 bindings, got %d", got)
	}
}

// =============================================================================
// Retry URI Tests
// =============================================================================

func TestRetryURI(t *testing.T) {
	at := time.UnixMilli(1714564800123)

	tests := []struct {
		ref    string
		expect string
	}{
		{"https://a.test/x.jpg", "https://a.test/x.jpg?r=1714564800123"},
		{"https://a.test/x.jpg?w=600", "https://a.test/x.jpg?w=600&r=1714564800123"},
		{"/img/x.png", "/img/x.png?r=1714564800123"},
	}

	for _, tt := range tests {
		if got := RetryURI(tt.ref, at); got != tt.expect {
			t.Errorf("RetryURI(%q) = %q, want %q", tt.ref, got, tt.expect)
		}
	}
}

func TestBackoff_Linear(t *testing.T) {
	cfg := DefaultRetryConfig
	for attempt, want := range map[int]time.Duration{
		1: 300 * time.Millisecond,
		2: 600 * time.Millisecond,
		3: 900 * time.Millisecond,
	} {
		if got := calculateBackoff(attempt, cfg); got != want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}
