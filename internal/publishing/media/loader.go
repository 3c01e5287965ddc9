package media

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/postfeed/internal/core/domain"
	"github.com/vietddude/postfeed/internal/publishing/metrics"
)

// BindFunc is called after a slot is bound to a new source. It runs outside
// the slot lock, so it may call back into the slot.
type BindFunc func(s *Slot, src string)

// Loader creates media slots and drives their retry/fallback policy.
type Loader struct {
	config RetryConfig
	sched  Scheduler
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithScheduler overrides the timer source used for retry delays.
func WithScheduler(s Scheduler) Option {
	return func(l *Loader) { l.sched = s }
}

// WithClock overrides the clock used for cache-busting timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// NewLoader creates a new Loader.
func NewLoader(config RetryConfig, opts ...Option) *Loader {
	l := &Loader{
		config: config.withDefaults(),
		sched:  SystemScheduler{},
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective retry configuration.
func (l *Loader) Config() RetryConfig {
	return l.config
}

// AttemptLoad binds a new slot to the target and returns it.
func (l *Loader) AttemptLoad(target domain.LoadTarget) *Slot {
	return l.AttemptLoadFunc(target, nil)
}

// AttemptLoadFunc is AttemptLoad with a hook observing every binding,
// including the initial one, which is reported before this call returns.
func (l *Loader) AttemptLoadFunc(target domain.LoadTarget, onBind BindFunc) *Slot {
	s := &Slot{
		id:     uuid.New(),
		target: target,
		loader: l,
		onBind: onBind,
		done:   make(chan struct{}),
		retry:  retryState{max: l.config.MaxAttempts},
	}

	if target.IsPlaceholder() {
		s.bindLocked(target.FallbackReference)
		s.state = domain.SlotStateFallback
		s.closeDone()
		metrics.MediaBindingsTotal.WithLabelValues("placeholder").Inc()
		s.notify(target.FallbackReference)
		return s
	}

	s.bindLocked(target.Reference)
	s.state = domain.SlotStateLoading
	metrics.MediaBindingsTotal.WithLabelValues("initial").Inc()
	s.notify(target.Reference)
	return s
}

// retryState counts failed loads of one slot. It is never reset.
type retryState struct {
	attempts int
	max      int
}

// Slot is a display handle whose source can be rebound over time.
type Slot struct {
	id     uuid.UUID
	target domain.LoadTarget
	loader *Loader
	onBind BindFunc

	mu       sync.Mutex
	source   string
	state    domain.SlotState
	broken   bool
	detached bool
	retry    retryState
	bindings []string
	timer    Timer
	done     chan struct{}
	closed   bool
}

// ID returns the slot identifier.
func (s *Slot) ID() uuid.UUID { return s.id }

// Target returns the target the slot was created for.
func (s *Slot) Target() domain.LoadTarget { return s.target }

// Source returns the current binding.
func (s *Slot) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// State returns the current lifecycle state.
func (s *Slot) State() domain.SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Broken reports whether the slot fell back after failures.
func (s *Slot) Broken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broken
}

// Attempts returns the number of retries scheduled so far.
func (s *Slot) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retry.attempts
}

// Bindings returns every source the slot has been bound to, in order.
func (s *Slot) Bindings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.bindings))
	copy(out, s.bindings)
	return out
}

// Done is closed once the slot is loaded, has fallen back, or is detached.
func (s *Slot) Done() <-chan struct{} {
	return s.done
}

// Succeed reports that the current binding loaded.
func (s *Slot) Succeed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached || s.state != domain.SlotStateLoading {
		return
	}
	s.state = domain.SlotStateLoaded
	s.closeDone()
}

// Fail reports that the current binding failed to load. Failures delivered
// while a retry is pending, after fallback, or after detach never rebind.
func (s *Slot) Fail() {
	s.mu.Lock()

	switch {
	case s.detached:
		s.mu.Unlock()
		return
	case s.state == domain.SlotStateFallback:
		// The placeholder itself did not render.
		s.broken = true
		s.mu.Unlock()
		return
	case s.state != domain.SlotStateLoading:
		s.mu.Unlock()
		return
	}

	l := s.loader
	if s.retry.attempts < s.retry.max && !s.target.IsPlaceholder() {
		s.retry.attempts++
		attempt := s.retry.attempts
		uri := RetryURI(s.target.Reference, l.now())
		delay := calculateBackoff(attempt, l.config)

		s.state = domain.SlotStateRetrying
		s.timer = l.sched.AfterFunc(delay, func() { s.applyRetry(uri) })
		s.mu.Unlock()

		l.log.Debug("Media load failed, retrying",
			"slot", s.id, "attempt", attempt, "delay", delay, "src", s.target.Reference)
		return
	}

	fallback := s.target.FallbackReference
	s.bindLocked(fallback)
	s.state = domain.SlotStateFallback
	s.broken = true
	s.closeDone()
	s.mu.Unlock()

	metrics.MediaBindingsTotal.WithLabelValues("fallback").Inc()
	l.log.Debug("Media load failed, using placeholder",
		"slot", s.id, "attempts", s.retry.max, "src", s.target.Reference)
	s.notify(fallback)
}

// Detach cancels any pending retry. A retry that fires after Detach is a
// no-op, so a discarded slot is never rebound.
func (s *Slot) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return
	}
	s.detached = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.closeDone()
}

// Resolution snapshots the slot.
func (s *Slot) Resolution(at time.Time) domain.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()

	bindings := make([]string, len(s.bindings))
	copy(bindings, s.bindings)
	return domain.Resolution{
		Reference:  s.target.Reference,
		Source:     s.source,
		State:      s.state,
		Broken:     s.broken,
		Attempts:   s.retry.attempts,
		Bindings:   bindings,
		ResolvedAt: at,
	}
}

func (s *Slot) applyRetry(uri string) {
	s.mu.Lock()
	if s.detached || s.state != domain.SlotStateRetrying {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.bindLocked(uri)
	s.state = domain.SlotStateLoading
	s.mu.Unlock()

	metrics.MediaBindingsTotal.WithLabelValues("retry").Inc()
	s.notify(uri)
}

// bindLocked requires s.mu.
func (s *Slot) bindLocked(src string) {
	s.source = src
	s.bindings = append(s.bindings, src)
}

// closeDone requires s.mu.
func (s *Slot) closeDone() {
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

func (s *Slot) notify(src string) {
	if s.onBind != nil {
		s.onBind(s, src)
	}
}
