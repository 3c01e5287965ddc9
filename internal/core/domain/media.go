package domain

import "time"

// LoadTarget is a media reference paired with the placeholder that replaces it
// when it cannot be loaded. The fallback reference is never retried.
type LoadTarget struct {
	Reference         string `json:"reference"`
	FallbackReference string `json:"fallback_reference"`
}

// IsPlaceholder reports whether the target short-circuits straight to the
// fallback: no reference at all, or a reference that already is the fallback.
func (t LoadTarget) IsPlaceholder() bool {
	return t.Reference == "" || t.Reference == t.FallbackReference
}

// SlotState is the lifecycle state of a rendered media slot.
type SlotState string

const (
	SlotStateLoading  SlotState = "loading"
	SlotStateRetrying SlotState = "retrying"
	SlotStateLoaded   SlotState = "loaded"
	SlotStateFallback SlotState = "fallback"
)

// IsTerminal reports whether no further bindings can happen from this state.
func (s SlotState) IsTerminal() bool {
	return s == SlotStateLoaded || s == SlotStateFallback
}

// Resolution is the settled outcome of loading a LoadTarget.
type Resolution struct {
	Reference  string    `json:"reference"`
	Source     string    `json:"source"`
	State      SlotState `json:"state"`
	Broken     bool      `json:"broken"`
	Attempts   int       `json:"attempts"`
	Bindings   []string  `json:"bindings,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}
