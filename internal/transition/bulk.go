package transition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"leadflow/internal/clock"
	"leadflow/internal/domain"
)

// BulkUpdater applies one change to several leads at once.
type BulkUpdater interface {
	BulkUpdateLeads(ctx context.Context, b domain.BulkUpdate) error
}

// BulkSink is told about every committed bulk change.
type BulkSink interface {
	LeadsUpdated(b domain.BulkUpdate, actor string, at time.Time)
}

type BulkOptions struct {
	Updater         BulkUpdater
	Sink            BulkSink
	Actor           string
	ExemptLabels    []string
	MinCommentWords int
	Timeout         time.Duration
	Clock           clock.Clock
	Logger          *slog.Logger
}

// BulkController drafts a change for a selection of leads.
type BulkController struct {
	mu         sync.Mutex
	opts       BulkOptions
	exempt     map[string]struct{}
	leadIDs    []string
	status     *domain.StatusOption
	source     *domain.Source
	tags       []domain.Tag
	op         domain.TagOperation
	comment    string
	submitting bool
}

// NewBulk creates a bulk controller over leadIDs.
func NewBulk(leadIDs []string, opts BulkOptions) *BulkController {
	if opts.MinCommentWords <= 0 {
		opts.MinCommentWords = DefaultMinCommentWords
	}
	if opts.ExemptLabels == nil {
		opts.ExemptLabels = []string{domain.LabelRNR}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	b := &BulkController{
		opts:    opts,
		exempt:  make(map[string]struct{}, len(opts.ExemptLabels)),
		leadIDs: append([]string{}, leadIDs...),
	}
	for _, l := range opts.ExemptLabels {
		b.exempt[l] = struct{}{}
	}
	return b
}

func (b *BulkController) SetStatus(opt domain.StatusOption) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = &opt
}

func (b *BulkController) SetSource(src domain.Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.source = &src
}

// SetTags selects the tags to add or remove.
func (b *BulkController) SetTags(tags []domain.Tag) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tags = append([]domain.Tag{}, tags...)
}

func (b *BulkController) SetTagOperation(op domain.TagOperation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.op = op
}

func (b *BulkController) SetComment(comment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comment = comment
}

func (b *BulkController) validateLocked() error {
	if len(b.leadIDs) == 0 {
		return &ValidationError{Field: "leads", Message: "select at least one lead"}
	}
	if len(b.tags) > 0 && b.op != domain.TagAdd && b.op != domain.TagRemove {
		return &ValidationError{Field: "tagOperation", Message: "choose whether to add or remove the selected tags"}
	}
	if b.status == nil {
		return nil
	}
	// Reminders and meetings belong to a single lead.
	if b.status.Label == domain.LabelMeeting || b.status.RequiresReminder == domain.ReminderYes {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("%q needs a reminder or meeting per lead", b.status.Label)}
	}
	if _, ok := b.exempt[b.status.Label]; ok {
		return nil
	}
	if WordCount(b.comment) < b.opts.MinCommentWords {
		return &ValidationError{
			Field:   "comment",
			Message: fmt.Sprintf("describe the update in at least %d words", b.opts.MinCommentWords),
		}
	}
	return nil
}

// Submit validates and sends the bulk change. An empty change succeeds
// without a network call.
func (b *BulkController) Submit(ctx context.Context) (Result, error) {
	b.mu.Lock()
	if b.submitting {
		b.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}
	if err := b.validateLocked(); err != nil {
		b.mu.Unlock()
		return Result{}, err
	}

	upd := domain.BulkUpdate{
		LeadIDs: append([]string{}, b.leadIDs...),
		Comment: strings.TrimSpace(b.comment),
	}
	if b.status != nil {
		s := b.status.Status()
		upd.Status = &s
	}
	if b.source != nil {
		s := *b.source
		upd.Source = &s
	}
	if len(b.tags) > 0 {
		upd.Tags = append([]domain.Tag{}, b.tags...)
		upd.TagOperation = b.op
	}
	if upd.IsEmpty() {
		b.resetLocked()
		b.mu.Unlock()
		return Result{Outcome: OutcomeNoChange}, nil
	}
	b.submitting = true
	b.mu.Unlock()

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}
	err := b.opts.Updater.BulkUpdateLeads(ctx, upd)

	b.mu.Lock()
	b.submitting = false
	if err != nil {
		b.mu.Unlock()
		b.opts.Logger.Warn("bulk lead update failed", "leads", len(upd.LeadIDs), "error", err)
		return Result{}, &RemoteUpdateError{Err: err}
	}
	b.resetLocked()
	b.mu.Unlock()

	now := b.opts.Clock.Now()
	if b.opts.Sink != nil {
		b.opts.Sink.LeadsUpdated(upd, b.opts.Actor, now)
	}
	return Result{
		Outcome:       OutcomeCommitted,
		ClosureNotice: upd.Status != nil && upd.Status.Label == domain.LabelClosure,
	}, nil
}

func (b *BulkController) resetLocked() {
	b.status = nil
	b.source = nil
	b.tags = nil
	b.op = ""
	b.comment = ""
}
