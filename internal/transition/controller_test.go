package transition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leadflow/internal/arbiter"
	"leadflow/internal/clock"
	"leadflow/internal/domain"
)

type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) UpdateLead(ctx context.Context, leadID string, u domain.Update) error {
	args := m.Called(ctx, leadID, u)
	return args.Error(0)
}

type recordingOpener struct {
	opened []PendingAction
}

func (o *recordingOpener) OpenContingent(kind ContingentKind, action PendingAction) {
	o.opened = append(o.opened, action)
}

type sinkCall struct {
	leadID string
	update domain.Update
	actor  string
}

var testNow = time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)

var (
	statusNew     = domain.StatusOption{ID: "s1", Label: "New", RequiresReminder: domain.ReminderNo}
	statusMeeting = domain.StatusOption{ID: "s2", Label: "Meeting", RequiresReminder: domain.ReminderNo}
	statusRNR     = domain.StatusOption{ID: "s3", Label: "RNR", RequiresReminder: domain.ReminderNo}
	statusFollow  = domain.StatusOption{ID: "s4", Label: "Follow Up", RequiresReminder: domain.ReminderYes}
	statusMaybe   = domain.StatusOption{ID: "s5", Label: "Interested", RequiresReminder: domain.ReminderOptional}
	statusClosure = domain.StatusOption{ID: "s6", Label: "Closure", RequiresReminder: domain.ReminderNo}
)

type harness struct {
	ctrl    *Controller
	updater *MockUpdater
	opener  *recordingOpener
	arb     *arbiter.Arbiter
	clock   *clock.FakeClock
	sunk    []sinkCall
}

func newHarness(t *testing.T, lead domain.Lead) *harness {
	t.Helper()
	h := &harness{
		updater: new(MockUpdater),
		opener:  &recordingOpener{},
		clock:   clock.Fake(testNow),
	}
	h.arb = arbiter.New(h.clock, arbiter.DefaultCloseDelay)
	h.ctrl = New(lead, Options{
		Updater: h.updater,
		Opener:  h.opener,
		Arbiter: h.arb,
		Sink: SinkFunc(func(leadID string, u domain.Update, actor string, at time.Time) {
			h.sunk = append(h.sunk, sinkCall{leadID: leadID, update: u, actor: actor})
		}),
		Actor: "Dana",
		Clock: h.clock,
	})
	return h
}

func newLead() domain.Lead {
	return domain.Lead{
		ID:     "lead1",
		Name:   "Marat",
		Status: statusNew.Status(),
		Source: domain.Source{ID: "src1", Label: "Website"},
		Requirements: domain.Requirements{
			Type:    "Apartment",
			Dynamic: map[string]string{"floor": "3"},
		},
	}
}

func TestShortCommentIsRejected(t *testing.T) {
	comments := []string{"", "   ", "ok", "  two words  ", "line\n\tbreak"}
	for _, comment := range comments {
		h := newHarness(t, newLead())
		require.NoError(t, h.ctrl.SetStatus(domain.StatusOption{ID: "s7", Label: "Contacted"}))
		require.NoError(t, h.ctrl.SetComment(comment))
		before := h.ctrl.Draft()

		_, err := h.ctrl.Submit(context.Background())

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "comment %q", comment)
		assert.Equal(t, "comment", verr.Field)
		assert.Equal(t, before, h.ctrl.Draft())
		assert.Equal(t, StateDrafting, h.ctrl.State())
		h.updater.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestReminderRequiredBeforeCommit(t *testing.T) {
	h := newHarness(t, newLead())
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).Return(nil).Once()
	ctx := context.Background()

	require.NoError(t, h.ctrl.SetStatus(statusFollow))
	require.NoError(t, h.ctrl.SetComment("call back on monday morning"))

	res, err := h.ctrl.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeferred, res.Outcome)
	require.NotNil(t, res.Pending)
	assert.Equal(t, KindReminder, res.Pending.Kind)
	assert.Equal(t, StateAwaitingContingentAction, h.ctrl.State())
	require.Len(t, h.opener.opened, 1)
	assert.False(t, h.arb.CanOpen(arbiter.MeetingModal))
	h.updater.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)

	// Submitting again while the modal is up does not reach the server.
	again, err := h.ctrl.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Pending.Token, again.Pending.Token)

	res, err = h.ctrl.Resolve(ctx, res.Pending.Token)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	h.updater.AssertNumberOfCalls(t, "UpdateLead", 1)
	assert.Equal(t, StateIdle, h.ctrl.State())

	h.clock.Advance(arbiter.DefaultCloseDelay)
	assert.True(t, h.arb.CanOpen(arbiter.MeetingModal))
}

func TestMeetingLabelAlwaysNeedsMeeting(t *testing.T) {
	for _, flag := range []domain.ReminderRequirement{domain.ReminderNo, domain.ReminderYes, domain.ReminderOptional} {
		h := newHarness(t, newLead())
		opt := statusMeeting
		opt.RequiresReminder = flag
		require.NoError(t, h.ctrl.SetStatus(opt))
		require.NoError(t, h.ctrl.SetComment("meeting at their office"))

		res, err := h.ctrl.Submit(context.Background())
		require.NoError(t, err, "flag %s", flag)
		require.Equal(t, OutcomeDeferred, res.Outcome, "flag %s", flag)
		require.NotNil(t, res.Pending)
		assert.Equal(t, KindMeeting, res.Pending.Kind)
		assert.Empty(t, h.ctrl.Draft().OptionalPromptShown)
	}
}

func TestMeetingScenarioCommitsOnceAndReconciles(t *testing.T) {
	h := newHarness(t, newLead())
	want := domain.Update{
		Status:  &domain.Status{ID: "s2", Label: "Meeting"},
		Comment: "Spoke to client today",
	}
	h.updater.On("UpdateLead", mock.Anything, "lead1", want).Return(nil).Once()
	ctx := context.Background()

	require.NoError(t, h.ctrl.SetStatus(statusMeeting))
	require.NoError(t, h.ctrl.SetComment("Spoke to client today"))

	res, err := h.ctrl.Submit(ctx)
	require.NoError(t, err)
	require.Equal(t, OutcomeDeferred, res.Outcome)

	res, err = h.ctrl.Resolve(ctx, res.Pending.Token)
	require.NoError(t, err)

	h.updater.AssertExpectations(t)
	h.updater.AssertNumberOfCalls(t, "UpdateLead", 1)
	assert.Equal(t, "s2", res.Lead.Status.ID)
	assert.Equal(t, 1, res.Lead.VisibleCommentCount)
	require.NotNil(t, res.Lead.LastComment)
	assert.Equal(t, "Dana", res.Lead.LastComment.Author)
	assert.Equal(t, testNow, *res.Lead.LastContactedAt)

	require.Len(t, h.sunk, 1)
	assert.Equal(t, "lead1", h.sunk[0].leadID)
	assert.Equal(t, want, h.sunk[0].update)
}

func TestExemptStatusSkipsWordCount(t *testing.T) {
	h := newHarness(t, newLead())
	h.updater.On("UpdateLead", mock.Anything, "lead1", domain.Update{
		Status: &domain.Status{ID: "s3", Label: "RNR"},
	}).Return(nil).Once()

	require.NoError(t, h.ctrl.SetStatus(statusRNR))
	res, err := h.ctrl.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	h.updater.AssertNumberOfCalls(t, "UpdateLead", 1)
}

func TestOptionalReminderDetourHappensOnce(t *testing.T) {
	h := newHarness(t, newLead())
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).Return(nil).Once()
	ctx := context.Background()

	require.NoError(t, h.ctrl.SetStatus(statusMaybe))
	require.NoError(t, h.ctrl.SetComment("interested in two bedroom units"))
	assert.True(t, h.ctrl.CommentVisible())
	assert.False(t, h.ctrl.Draft().CommentOpen)

	res, err := h.ctrl.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommentOpened, res.Outcome)
	assert.True(t, h.ctrl.Draft().CommentOpen)
	h.updater.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)

	res, err = h.ctrl.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
}

func TestOptionalReminderDetourCannotBypassWordCount(t *testing.T) {
	h := newHarness(t, newLead())
	ctx := context.Background()

	require.NoError(t, h.ctrl.SetStatus(statusMaybe))
	require.NoError(t, h.ctrl.SetComment("maybe"))

	for i := 0; i < 3; i++ {
		_, err := h.ctrl.Submit(ctx)
		assert.True(t, IsValidation(err), "attempt %d", i)
	}
	h.updater.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)
}

func TestVoluntaryReminderAfterDetour(t *testing.T) {
	h := newHarness(t, newLead())
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).Return(nil).Once()
	ctx := context.Background()

	require.NoError(t, h.ctrl.SetStatus(statusMaybe))
	require.NoError(t, h.ctrl.SetComment("interested in the sea view"))
	_, err := h.ctrl.Submit(ctx)
	require.NoError(t, err)

	res, err := h.ctrl.RequestReminder()
	require.NoError(t, err)
	require.Equal(t, OutcomeDeferred, res.Outcome)
	assert.Equal(t, KindReminder, res.Pending.Kind)

	res, err = h.ctrl.Resolve(ctx, res.Pending.Token)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
}

func TestRemoteFailureKeepsDraft(t *testing.T) {
	h := newHarness(t, newLead())
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).
		Return(errors.New("lead is locked by another user")).Once()
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).Return(nil).Once()
	ctx := context.Background()

	require.NoError(t, h.ctrl.SetStatus(statusClosure))
	require.NoError(t, h.ctrl.SetComment("signed the reservation form"))
	before := h.ctrl.Draft()

	_, err := h.ctrl.Submit(ctx)
	var remote *RemoteUpdateError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, err.Error(), "lead is locked by another user")
	assert.Equal(t, StateDrafting, h.ctrl.State())
	assert.Equal(t, before, h.ctrl.Draft())
	assert.Empty(t, h.sunk)

	res, err := h.ctrl.Submit(ctx)
	require.NoError(t, err)
	assert.True(t, res.ClosureNotice)
	assert.Equal(t, "s6", h.ctrl.Lead().Status.ID)
}

func TestSubmitTimeoutIsRemoteFailure(t *testing.T) {
	h := newHarness(t, newLead())
	h.ctrl.opts.Timeout = 20 * time.Millisecond
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded).Once()

	require.NoError(t, h.ctrl.SetStatus(statusClosure))
	require.NoError(t, h.ctrl.SetComment("signed the reservation form"))
	before := h.ctrl.Draft()

	_, err := h.ctrl.Submit(context.Background())
	var remote *RemoteUpdateError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "lead1", remote.LeadID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateDrafting, h.ctrl.State())
	assert.Equal(t, before, h.ctrl.Draft())
	assert.Equal(t, "s1", h.ctrl.Lead().Status.ID)
	assert.Empty(t, h.sunk)
	h.updater.AssertExpectations(t)
}

func TestCancelReturnsToDrafting(t *testing.T) {
	h := newHarness(t, newLead())
	require.NoError(t, h.ctrl.SetStatus(statusFollow))
	require.NoError(t, h.ctrl.SetComment("needs a call back later"))

	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.ctrl.Cancel(res.Pending.Token))
	assert.Equal(t, StateDrafting, h.ctrl.State())
	assert.Nil(t, h.ctrl.Pending())
	assert.ErrorIs(t, h.ctrl.Cancel(res.Pending.Token), ErrStaleAction)

	_, err = h.ctrl.Resolve(context.Background(), res.Pending.Token)
	assert.ErrorIs(t, err, ErrStaleAction)
	h.updater.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)
}

func TestArbiterCloseCallbackCancelsPending(t *testing.T) {
	h := newHarness(t, newLead())
	require.NoError(t, h.ctrl.SetStatus(statusFollow))
	require.NoError(t, h.ctrl.SetComment("needs a call back later"))
	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	h.arb.CloseAllExcept(arbiter.MeetingModal)
	assert.Equal(t, StateDrafting, h.ctrl.State())
	assert.Nil(t, h.ctrl.Pending())
}

func TestResetInvalidatesPendingToken(t *testing.T) {
	h := newHarness(t, newLead())
	require.NoError(t, h.ctrl.SetStatus(statusMeeting))
	require.NoError(t, h.ctrl.SetComment("meeting booked for friday"))
	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	refreshed := newLead()
	refreshed.Description = "changed on the server"
	h.ctrl.Reset(refreshed)

	_, err = h.ctrl.Resolve(context.Background(), res.Pending.Token)
	assert.ErrorIs(t, err, ErrStaleAction)
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Equal(t, "changed on the server", h.ctrl.Lead().Description)
	h.updater.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)
}

func TestModalBusyKeepsDrafting(t *testing.T) {
	h := newHarness(t, newLead())
	h.arb.Register(arbiter.ReminderModal, nil)

	require.NoError(t, h.ctrl.SetStatus(statusMeeting))
	require.NoError(t, h.ctrl.SetComment("meeting booked for friday"))
	_, err := h.ctrl.Submit(context.Background())

	assert.ErrorIs(t, err, ErrModalBusy)
	assert.Equal(t, StateDrafting, h.ctrl.State())
	assert.Empty(t, h.opener.opened)
}

func TestSubmitInFlightRejectsSecondSubmit(t *testing.T) {
	h := newHarness(t, newLead())
	entered := make(chan struct{})
	release := make(chan struct{})
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).Return(nil).Once()

	require.NoError(t, h.ctrl.SetStatus(statusRNR))

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Submit(context.Background())
		done <- err
	}()
	<-entered

	assert.Equal(t, StateSubmitting, h.ctrl.State())
	_, err := h.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, h.ctrl.SetComment("late edit"), ErrSubmitInFlight)
	assert.ErrorIs(t, h.ctrl.Skip(), ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	h.updater.AssertNumberOfCalls(t, "UpdateLead", 1)
}

func TestResultOfReplacedDraftIsDiscarded(t *testing.T) {
	h := newHarness(t, newLead())
	entered := make(chan struct{})
	release := make(chan struct{})
	h.updater.On("UpdateLead", mock.Anything, "lead1", mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).Return(nil).Once()

	require.NoError(t, h.ctrl.SetStatus(statusRNR))
	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Submit(context.Background())
		done <- err
	}()
	<-entered

	h.ctrl.Reset(newLead())
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "s1", h.ctrl.Lead().Status.ID)
	assert.Empty(t, h.sunk)
}

func TestNoChangeSkipsNetwork(t *testing.T) {
	h := newHarness(t, newLead())
	require.NoError(t, h.ctrl.SetStatus(statusNew))
	require.NoError(t, h.ctrl.SetRequirement(domain.FieldType, "Apartment"))

	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, res.Outcome)
	assert.Equal(t, StateIdle, h.ctrl.State())
	h.updater.AssertNotCalled(t, "UpdateLead", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequirementFieldsAreDiffed(t *testing.T) {
	h := newHarness(t, newLead())
	h.ctrl.opts.Catalog = Catalog{Fields: append(DefaultRequirementFields(),
		domain.RequirementField{Key: "floor", Kind: domain.FieldNumber},
		domain.RequirementField{Key: "view", Kind: domain.FieldSelect},
	)}
	budget := "90000"
	h.updater.On("UpdateLead", mock.Anything, "lead1", domain.Update{
		Budget:        &budget,
		DynamicFields: map[string]string{"view": "sea"},
	}).Return(nil).Once()

	require.NoError(t, h.ctrl.SetRequirement(domain.FieldType, "Apartment"))
	require.NoError(t, h.ctrl.SetRequirement(domain.FieldProject, "   "))
	require.NoError(t, h.ctrl.SetRequirement(domain.FieldBudget, " 90000 "))
	require.NoError(t, h.ctrl.SetRequirement("floor", "3"))
	require.NoError(t, h.ctrl.SetRequirement("view", "sea"))

	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, "sea", h.ctrl.Lead().Requirements.Dynamic["view"])
	h.updater.AssertExpectations(t)
}

func TestCommentVisibility(t *testing.T) {
	h := newHarness(t, newLead())
	assert.False(t, h.ctrl.CommentVisible())
	assert.Equal(t, StateIdle, h.ctrl.State())

	require.NoError(t, h.ctrl.SetSource(domain.Source{ID: "src2", Label: "Referral"}))
	assert.True(t, h.ctrl.CommentVisible())
	assert.Equal(t, StateDrafting, h.ctrl.State())

	require.NoError(t, h.ctrl.SetSource(domain.Source{ID: "src1", Label: "Website"}))
	assert.False(t, h.ctrl.CommentVisible())
	assert.Equal(t, StateIdle, h.ctrl.State())

	require.NoError(t, h.ctrl.OpenComment())
	assert.True(t, h.ctrl.CommentVisible())
	assert.Equal(t, StateDrafting, h.ctrl.State())

	require.NoError(t, h.ctrl.Skip())
	assert.False(t, h.ctrl.CommentVisible())
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestEditingWhileAwaitingDropsPendingAction(t *testing.T) {
	h := newHarness(t, newLead())
	require.NoError(t, h.ctrl.SetStatus(statusFollow))
	require.NoError(t, h.ctrl.SetComment("call back next tuesday"))
	res, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.ctrl.SetStatus(statusRNR))
	assert.Equal(t, StateDrafting, h.ctrl.State())

	_, err = h.ctrl.Resolve(context.Background(), res.Pending.Token)
	assert.ErrorIs(t, err, ErrStaleAction)
}
