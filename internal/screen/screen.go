// Package screen composes a lead list screen: one paged list, a status
// controller per opened card, and the session's modal arbiter.
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"leadflow/internal/arbiter"
	"leadflow/internal/clock"
	"leadflow/internal/domain"
	"leadflow/internal/pagination"
	"leadflow/internal/transition"
)

var (
	ErrLeadNotListed = errors.New("lead is not in the list")
	ErrScreenClosed  = errors.New("screen closed")
)

// Backend is the CRM side of a screen.
type Backend interface {
	transition.Updater
	transition.BulkUpdater
	transition.CatalogSource
}

// Options wires a LeadScreen. Backend, Fetcher and Arbiter are required.
type Options struct {
	Backend Backend
	Fetcher pagination.Fetcher[domain.Lead]
	Opener  transition.ContingentOpener
	Arbiter *arbiter.Arbiter

	Actor           string
	PageSize        int
	Threshold       float64
	Timeout         time.Duration
	MinCommentWords int
	ExemptLabels    []string
	Clock           clock.Clock
	Logger          *slog.Logger
}

// LeadScreen keeps the list copy of every lead in step with the changes its
// cards and bulk actions commit.
type LeadScreen struct {
	mu      sync.Mutex
	opts    Options
	list    *pagination.LeadList
	catalog transition.Catalog
	cards   map[string]*transition.Controller
	closed  bool
	logger  *slog.Logger
}

// NewLeadScreen loads the catalogs and prepares an empty list. Call Open to
// fetch the first page.
func NewLeadScreen(ctx context.Context, opts Options) (*LeadScreen, error) {
	if opts.Backend == nil || opts.Fetcher == nil {
		return nil, errors.New("screen: backend and fetcher are required")
	}
	if opts.Arbiter == nil {
		return nil, errors.New("screen: arbiter is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &LeadScreen{
		opts:   opts,
		cards:  make(map[string]*transition.Controller),
		logger: opts.Logger,
	}
	s.catalog = transition.LoadCatalog(ctx, opts.Backend, opts.Logger)
	s.list = pagination.New[domain.Lead](opts.Fetcher, pagination.Config{
		PageSize:  opts.PageSize,
		Threshold: opts.Threshold,
		Timeout:   opts.Timeout,
		Logger:    opts.Logger,
	})
	return s, nil
}

// Open loads the first page with filter.
func (s *LeadScreen) Open(ctx context.Context, filter domain.Filter) error {
	return s.SetFilter(ctx, filter)
}

// Refresh reloads the first page. Open cards are discarded.
func (s *LeadScreen) Refresh(ctx context.Context) error {
	if err := s.live(); err != nil {
		return err
	}
	s.dropCards()
	return s.list.Refresh(ctx)
}

// SetFilter replaces the filter and reloads. Open cards are discarded.
func (s *LeadScreen) SetFilter(ctx context.Context, filter domain.Filter) error {
	if err := s.live(); err != nil {
		return err
	}
	s.dropCards()
	return s.list.SetFilter(ctx, filter)
}

func (s *LeadScreen) OnScroll(ctx context.Context, v pagination.Viewport) (bool, error) {
	return s.list.OnScroll(ctx, v)
}

func (s *LeadScreen) LoadMore(ctx context.Context) (bool, error) {
	return s.list.LoadMore(ctx)
}

func (s *LeadScreen) Items() []domain.Lead { return s.list.Items() }

func (s *LeadScreen) Cursor() pagination.Cursor { return s.list.Cursor() }

func (s *LeadScreen) Filter() domain.Filter { return s.list.Filter() }

func (s *LeadScreen) Catalog() transition.Catalog { return s.catalog }

// Card returns the controller of a listed lead, creating it on first use.
func (s *LeadScreen) Card(leadID string) (*transition.Controller, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrScreenClosed
	}
	if c, ok := s.cards[leadID]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	lead, ok := s.find(leadID)
	if !ok {
		return nil, ErrLeadNotListed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cards[leadID]; ok {
		return c, nil
	}
	c := transition.New(lead, transition.Options{
		Updater:         s.opts.Backend,
		Opener:          s.opts.Opener,
		Arbiter:         s.opts.Arbiter,
		Sink:            s,
		Catalog:         s.catalog,
		Actor:           s.opts.Actor,
		ExemptLabels:    s.opts.ExemptLabels,
		MinCommentWords: s.opts.MinCommentWords,
		Timeout:         s.opts.Timeout,
		Clock:           s.opts.Clock,
		Logger:          s.logger,
	})
	s.cards[leadID] = c
	return c, nil
}

// Bulk starts a bulk change over the given leads.
func (s *LeadScreen) Bulk(leadIDs []string) *transition.BulkController {
	return transition.NewBulk(leadIDs, transition.BulkOptions{
		Updater:         s.opts.Backend,
		Sink:            s,
		Actor:           s.opts.Actor,
		ExemptLabels:    s.opts.ExemptLabels,
		MinCommentWords: s.opts.MinCommentWords,
		Timeout:         s.opts.Timeout,
		Clock:           s.opts.Clock,
		Logger:          s.logger,
	})
}

// LeadUpdated reconciles a card's committed update into the list.
func (s *LeadScreen) LeadUpdated(leadID string, u domain.Update, actor string, at time.Time) {
	if !pagination.ApplyLeadUpdate(s.list, leadID, u, actor, at) {
		s.logger.Debug("updated lead not in list", "lead_id", leadID)
	}
}

// LeadsUpdated reconciles a committed bulk change into the list. Cards of
// the affected leads restart from their new list copy.
func (s *LeadScreen) LeadsUpdated(b domain.BulkUpdate, actor string, at time.Time) {
	n := pagination.ApplyBulkUpdate(s.list, b, actor, at)
	s.logger.Info("bulk change applied", "selected", len(b.LeadIDs), "listed", n)

	for _, id := range b.LeadIDs {
		s.mu.Lock()
		c, ok := s.cards[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		if lead, found := s.find(id); found {
			c.Reset(lead)
		}
	}
}

// SwitchContingent closes every open contingent modal except keep, for when
// the user jumps from one card's reminder or meeting straight to another.
// The closed modals' pending actions are cancelled.
func (s *LeadScreen) SwitchContingent(keep string) {
	s.opts.Arbiter.CloseAllExcept(keep)
}

// Close detaches the screen. Open contingent modals are closed, pending
// actions of its cards are abandoned and loads that resolve later are
// discarded.
func (s *LeadScreen) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.opts.Arbiter.CloseAllExcept("")
	s.dropCards()
	s.list.Close()
}

func (s *LeadScreen) live() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrScreenClosed
	}
	return nil
}

func (s *LeadScreen) dropCards() {
	s.mu.Lock()
	cards := s.cards
	s.cards = make(map[string]*transition.Controller)
	s.mu.Unlock()

	for _, c := range cards {
		c.Reset(c.Lead())
	}
}

func (s *LeadScreen) find(id string) (domain.Lead, bool) {
	for _, l := range s.list.Items() {
		if l.ID == id {
			return l, true
		}
	}
	return domain.Lead{}, false
}
