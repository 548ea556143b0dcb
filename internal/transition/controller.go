// Package transition gates and commits status, source, tag and comment
// changes to a lead, routing through a reminder or meeting first when the
// target status demands one.
package transition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadflow/internal/arbiter"
	"leadflow/internal/clock"
	"leadflow/internal/domain"
	"leadflow/internal/reconcile"
)

// DefaultMinCommentWords is the comment length required for a status change.
const DefaultMinCommentWords = 3

// Updater sends a partial update to the CRM.
type Updater interface {
	UpdateLead(ctx context.Context, leadID string, u domain.Update) error
}

// ContingentOpener shows the reminder or meeting UI for a pending action.
// On success the UI calls Controller.Resolve with the action token; on
// dismissal it calls Controller.Cancel or nothing at all.
type ContingentOpener interface {
	OpenContingent(kind ContingentKind, action PendingAction)
}

// Sink receives every committed update so the owning screen can reconcile
// its list copy.
type Sink interface {
	LeadUpdated(leadID string, u domain.Update, actor string, at time.Time)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(leadID string, u domain.Update, actor string, at time.Time)

func (f SinkFunc) LeadUpdated(leadID string, u domain.Update, actor string, at time.Time) {
	f(leadID, u, actor, at)
}

// Options wires a Controller. Updater is required.
type Options struct {
	Updater Updater
	Opener  ContingentOpener
	Arbiter *arbiter.Arbiter
	Sink    Sink
	Catalog Catalog

	// Actor is the display name recorded on comments.
	Actor string
	// ExemptLabels are status labels that need no comment. Defaults to RNR.
	ExemptLabels    []string
	MinCommentWords int
	// Timeout bounds each update call. Zero means no extra bound.
	Timeout time.Duration
	Clock   clock.Clock
	Logger  *slog.Logger
}

// PendingAction is the continuation of a deferred submission. The token is
// only honoured while the draft it was issued for is still current.
type PendingAction struct {
	Token      string
	Kind       ContingentKind
	LeadID     string
	BaseStatus domain.Status
	Target     domain.StatusOption
}

// Result describes a Submit that did not fail.
type Result struct {
	Outcome Outcome
	Update  domain.Update
	// Lead is the reconciled lead after a commit.
	Lead    domain.Lead
	Pending *PendingAction
	// ClosureNotice asks the caller to show the one-time deal-creation
	// notice.
	ClosureNotice bool
}

// Controller owns the draft of one lead card.
type Controller struct {
	mu      sync.Mutex
	opts    Options
	exempt  map[string]struct{}
	logger  *slog.Logger
	clock   clock.Clock
	lead    domain.Lead
	draft   Draft
	state   State
	pending *PendingAction
	// owner identifies this controller's modal registrations.
	owner string

	// generation changes whenever the draft is discarded; in-flight work
	// from an older generation must not touch the controller.
	generation uint64
}

// New creates a controller for lead in the Idle state.
func New(lead domain.Lead, opts Options) *Controller {
	if opts.MinCommentWords <= 0 {
		opts.MinCommentWords = DefaultMinCommentWords
	}
	if opts.ExemptLabels == nil {
		opts.ExemptLabels = []string{domain.LabelRNR}
	}
	c := &Controller{
		opts:   opts,
		exempt: make(map[string]struct{}, len(opts.ExemptLabels)),
		logger: opts.Logger,
		clock:  opts.Clock,
		lead:   reconcile.Clone(lead),
		owner:  uuid.NewString(),
		draft:  newDraft(lead),
	}
	for _, l := range opts.ExemptLabels {
		c.exempt[l] = struct{}{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Lead returns the controller's copy of the lead, reconciled with every
// commit made through it.
func (c *Controller) Lead() domain.Lead {
	c.mu.Lock()
	defer c.mu.Unlock()
	return reconcile.Clone(c.lead)
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Pending returns the outstanding contingent action, if any.
func (c *Controller) Pending() *PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	p := *c.pending
	return &p
}

// CommentVisible reports whether the comment input should be shown.
func (c *Controller) CommentVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commentVisibleLocked()
}

func (c *Controller) commentVisibleLocked() bool {
	d := &c.draft
	return d.CommentOpen || d.StatusChanged() || c.sourceChangedLocked() || c.tagsChangedLocked()
}

func (c *Controller) sourceChangedLocked() bool {
	return c.draft.Source != nil && c.draft.Source.ID != c.lead.Source.ID
}

func (c *Controller) tagsChangedLocked() bool {
	return c.draft.TagsChanged && !sameTags(c.draft.Tags, c.lead.Tags)
}

// SetStatus proposes a new status.
func (c *Controller) SetStatus(opt domain.StatusOption) error {
	return c.mutate(func(d *Draft) { d.Status = &opt })
}

// SetSource proposes a new source.
func (c *Controller) SetSource(src domain.Source) error {
	return c.mutate(func(d *Draft) { d.Source = &src })
}

// SetTags proposes a new tag set.
func (c *Controller) SetTags(tags []domain.Tag) error {
	return c.mutate(func(d *Draft) {
		d.Tags = append([]domain.Tag{}, tags...)
		d.TagsChanged = true
	})
}

func (c *Controller) SetComment(comment string) error {
	return c.mutate(func(d *Draft) { d.Comment = comment })
}

// OpenComment shows the comment box without any other change.
func (c *Controller) OpenComment() error {
	return c.mutate(func(d *Draft) { d.CommentOpen = true })
}

// SetRequirement drafts a requirement field value.
func (c *Controller) SetRequirement(key, value string) error {
	return c.mutate(func(d *Draft) {
		if d.Requirements == nil {
			d.Requirements = make(map[string]string)
		}
		d.Requirements[key] = value
	})
}

// mutate applies fn to the draft. Editing while a contingent action is
// pending drops that action: its token would resume a different draft.
func (c *Controller) mutate(fn func(*Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrSubmitInFlight
	}
	c.dropPendingLocked()
	fn(&c.draft)
	c.settleStateLocked()
	return nil
}

// settleStateLocked derives Idle or Drafting from the draft.
func (c *Controller) settleStateLocked() {
	if c.hasChangesLocked() || c.draft.CommentOpen {
		c.state = StateDrafting
	} else {
		c.state = StateIdle
	}
}

func (c *Controller) hasChangesLocked() bool {
	d := &c.draft
	if d.StatusChanged() || c.sourceChangedLocked() || c.tagsChangedLocked() {
		return true
	}
	if strings.TrimSpace(d.Comment) != "" {
		return true
	}
	for _, v := range d.Requirements {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Skip discards the draft.
func (c *Controller) Skip() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return ErrSubmitInFlight
	}
	c.resetLocked(c.lead)
	return nil
}

// Reset replaces the lead, e.g. after the list re-fetched it, discarding any
// unsaved draft and invalidating pending actions and in-flight submissions.
func (c *Controller) Reset(lead domain.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(reconcile.Clone(lead))
}

func (c *Controller) resetLocked(lead domain.Lead) {
	c.dropPendingLocked()
	c.lead = lead
	c.draft = newDraft(lead)
	c.state = StateIdle
	c.generation++
}

func (c *Controller) dropPendingLocked() {
	if c.pending == nil {
		return
	}
	if c.opts.Arbiter != nil {
		c.opts.Arbiter.UnregisterAs(c.pending.Kind.ModalID(), c.owner)
	}
	c.pending = nil
	if c.state == StateAwaitingContingentAction {
		c.state = StateDrafting
	}
}

// buildUpdateLocked turns the draft into the outgoing update, keeping only
// real differences from the lead.
func (c *Controller) buildUpdateLocked() domain.Update {
	d := &c.draft
	var u domain.Update
	if d.StatusChanged() {
		s := d.Status.Status()
		u.Status = &s
	}
	if c.sourceChangedLocked() {
		s := *d.Source
		u.Source = &s
	}
	if c.tagsChangedLocked() {
		tags := append([]domain.Tag{}, d.Tags...)
		u.Tags = &tags
	}
	u.Comment = strings.TrimSpace(d.Comment)
	requirementChanges(&u, c.opts.Catalog.fields(), d.Requirements, c.lead)
	return u
}

func (c *Controller) requiredKindLocked() ContingentKind {
	d := &c.draft
	if !d.StatusChanged() {
		return ""
	}
	if d.Status.Label == domain.LabelMeeting {
		if !d.MeetingAdded {
			return KindMeeting
		}
		return ""
	}
	if d.Status.RequiresReminder == domain.ReminderYes && !d.ReminderAdded {
		return KindReminder
	}
	return ""
}

func (c *Controller) validateLocked() error {
	d := &c.draft
	if !d.StatusChanged() {
		return nil
	}
	if _, ok := c.exempt[d.Status.Label]; ok {
		return nil
	}
	if WordCount(d.Comment) < c.opts.MinCommentWords {
		return &ValidationError{
			Field:   "comment",
			Message: fmt.Sprintf("describe the update in at least %d words", c.opts.MinCommentWords),
		}
	}
	return nil
}

// Submit validates the draft and either commits it, defers it behind a
// contingent action, or takes the optional-reminder detour.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()

	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	case StateAwaitingContingentAction:
		p := *c.pending
		c.mu.Unlock()
		return Result{Outcome: OutcomeDeferred, Pending: &p}, nil
	}

	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return Result{}, err
	}

	d := &c.draft
	if d.StatusChanged() && d.Status.RequiresReminder == domain.ReminderOptional &&
		d.Status.Label != domain.LabelMeeting && !d.CommentOpen && !d.OptionalPromptShown && !d.ReminderAdded {
		d.CommentOpen = true
		d.OptionalPromptShown = true
		c.state = StateDrafting
		c.mu.Unlock()
		return Result{Outcome: OutcomeCommentOpened}, nil
	}

	if kind := c.requiredKindLocked(); kind != "" {
		return c.deferLocked(kind)
	}

	u := c.buildUpdateLocked()
	if u.IsEmpty() {
		c.resetLocked(c.lead)
		c.mu.Unlock()
		return Result{Outcome: OutcomeNoChange}, nil
	}

	return c.commitLocked(ctx, u)
}

// RequestReminder opens the reminder modal voluntarily, e.g. after the
// optional-reminder detour. Resolving it resubmits the draft.
func (c *Controller) RequestReminder() (Result, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	case StateAwaitingContingentAction:
		p := *c.pending
		c.mu.Unlock()
		return Result{Outcome: OutcomeDeferred, Pending: &p}, nil
	}
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return Result{}, err
	}
	return c.deferLocked(KindReminder)
}

// deferLocked parks the draft behind a contingent action. It releases c.mu.
func (c *Controller) deferLocked(kind ContingentKind) (Result, error) {
	modal := kind.ModalID()
	if c.opts.Arbiter != nil && !c.opts.Arbiter.CanOpenAs(modal, c.owner) {
		c.mu.Unlock()
		return Result{}, ErrModalBusy
	}

	p := PendingAction{
		Token:      uuid.NewString(),
		Kind:       kind,
		LeadID:     c.lead.ID,
		BaseStatus: c.draft.BaseStatus,
	}
	if c.draft.Status != nil {
		p.Target = *c.draft.Status
	}
	c.pending = &p
	c.state = StateAwaitingContingentAction

	if c.opts.Arbiter != nil {
		token := p.Token
		c.opts.Arbiter.RegisterAs(modal, c.owner, func() {
			if err := c.Cancel(token); err != nil {
				c.logger.Debug("close callback for settled action", "lead_id", p.LeadID, "error", err)
			}
		})
	}
	c.mu.Unlock()

	c.logger.Info("status change deferred", "lead_id", p.LeadID, "kind", string(kind), "target", p.Target.Label)
	if c.opts.Opener != nil {
		c.opts.Opener.OpenContingent(kind, p)
	}
	return Result{Outcome: OutcomeDeferred, Pending: &p}, nil
}

// commitLocked sends u and applies the outcome. It releases c.mu for the
// duration of the remote call.
func (c *Controller) commitLocked(ctx context.Context, u domain.Update) (Result, error) {
	c.state = StateSubmitting
	gen := c.generation
	leadID := c.lead.ID
	c.mu.Unlock()

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	err := c.opts.Updater.UpdateLead(ctx, leadID, u)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding update result for replaced draft", "lead_id", leadID, "error", err)
		if err != nil {
			return Result{}, &RemoteUpdateError{LeadID: leadID, Err: err}
		}
		return Result{Outcome: OutcomeCommitted, Update: u}, nil
	}

	if err != nil {
		c.state = StateDrafting
		c.mu.Unlock()
		c.logger.Warn("lead update failed", "lead_id", leadID, "error", err)
		return Result{}, &RemoteUpdateError{LeadID: leadID, Err: err}
	}

	now := c.clock.Now()
	actor := c.opts.Actor
	c.lead = reconcile.Apply(c.lead, u, actor, now)
	c.resetLocked(c.lead)
	lead := reconcile.Clone(c.lead)
	c.mu.Unlock()

	c.logger.Info("lead updated", "lead_id", leadID, "status", lead.Status.Label)
	if c.opts.Sink != nil {
		c.opts.Sink.LeadUpdated(leadID, u, actor, now)
	}
	return Result{
		Outcome:       OutcomeCommitted,
		Update:        u,
		Lead:          lead,
		ClosureNotice: u.Status != nil && u.Status.Label == domain.LabelClosure,
	}, nil
}

// Resolve resumes a deferred submission after its contingent action
// succeeded. Tokens from a discarded draft return ErrStaleAction.
func (c *Controller) Resolve(ctx context.Context, token string) (Result, error) {
	c.mu.Lock()
	if c.pending == nil || c.pending.Token != token {
		c.mu.Unlock()
		return Result{}, ErrStaleAction
	}
	switch c.pending.Kind {
	case KindMeeting:
		c.draft.MeetingAdded = true
	case KindReminder:
		c.draft.ReminderAdded = true
	}
	c.dropPendingLocked()
	c.mu.Unlock()

	return c.Submit(ctx)
}

// Cancel abandons a pending contingent action; the draft stays editable.
func (c *Controller) Cancel(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil || c.pending.Token != token {
		return ErrStaleAction
	}
	c.dropPendingLocked()
	return nil
}
