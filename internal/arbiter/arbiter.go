// Package arbiter coordinates the mutually exclusive contingent-action modals
// (reminder, meeting) so at most one is registered at a time.
package arbiter

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"leadflow/internal/clock"
)

// Modal identifiers used by the status workflow.
const (
	ReminderModal = "reminder-modal"
	MeetingModal  = "meeting-modal"
)

// DefaultCloseDelay matches the modal close transition.
const DefaultCloseDelay = 300 * time.Millisecond

type registration struct {
	owner   string
	onClose func()
	closing *clock.Timer
}

// Arbiter is shared by every screen of a session. Create one at start-up and
// pass it down; the zero value is not usable.
type Arbiter struct {
	mu         sync.Mutex
	clock      clock.Clock
	closeDelay time.Duration
	modals     map[string]*registration
	logger     *slog.Logger
}

// Option customises an Arbiter.
type Option func(*Arbiter)

// WithLogger sets the logger used for registry transitions.
func WithLogger(l *slog.Logger) Option {
	return func(a *Arbiter) { a.logger = l }
}

// New creates an Arbiter that delays de-registration by closeDelay.
func New(c clock.Clock, closeDelay time.Duration, opts ...Option) *Arbiter {
	if c == nil {
		c = clock.Real()
	}
	if closeDelay < 0 {
		closeDelay = 0
	}
	a := &Arbiter{
		clock:      c,
		closeDelay: closeDelay,
		modals:     make(map[string]*registration),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CanOpen reports whether the modal id may be shown now. A modal that is
// already registered may always re-open. Otherwise any pending close blocks
// opening, and opening needs an empty registry.
func (a *Arbiter) CanOpen(id string) bool {
	return a.CanOpenAs(id, "")
}

// CanOpenAs is CanOpen for a named owner. A registered id re-opens only for
// the owner holding it.
func (a *Arbiter) CanOpenAs(id, owner string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if reg, ok := a.modals[id]; ok {
		return reg.owner == owner
	}
	for _, reg := range a.modals {
		if reg.closing != nil {
			return false
		}
	}
	return len(a.modals) == 0
}

// Register marks id active with its close callback, cancelling any pending
// close for it. Callers gate on CanOpen first.
func (a *Arbiter) Register(id string, onClose func()) {
	a.RegisterAs(id, "", onClose)
}

// RegisterAs registers id on behalf of owner. Callers gate on CanOpenAs.
func (a *Arbiter) RegisterAs(id, owner string, onClose func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if reg, ok := a.modals[id]; ok && reg.closing != nil {
		reg.closing.Stop()
	}
	a.modals[id] = &registration{owner: owner, onClose: onClose}
	a.logger.Debug("modal registered", "modal", id, "owner", owner)
}

// Unregister schedules removal of id after the close delay. Until then the
// registration counts as a pending transition for CanOpen.
func (a *Arbiter) Unregister(id string) {
	a.UnregisterAs(id, "")
}

// UnregisterAs is Unregister for a named owner. It does nothing when id is
// held by someone else.
func (a *Arbiter) UnregisterAs(id, owner string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	reg, ok := a.modals[id]
	if !ok || reg.owner != owner || reg.closing != nil {
		return
	}

	if a.closeDelay == 0 {
		delete(a.modals, id)
		return
	}
	reg.closing = a.clock.AfterFunc(a.closeDelay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		// Register may have replaced the entry while the timer ran.
		if cur, ok := a.modals[id]; ok && cur == reg {
			delete(a.modals, id)
			a.logger.Debug("modal unregistered", "modal", id)
		}
	})
}

// CloseAllExcept invokes the close callback of every registered modal other
// than id. Callbacks run without the arbiter lock held so they may call
// Unregister.
func (a *Arbiter) CloseAllExcept(id string) {
	a.mu.Lock()
	var callbacks []func()
	for other, reg := range a.modals {
		if other == id || reg.onClose == nil || reg.closing != nil {
			continue
		}
		callbacks = append(callbacks, reg.onClose)
	}
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// Active returns the registered modal ids, including ones pending close.
func (a *Arbiter) Active() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.modals))
	for id := range a.modals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
