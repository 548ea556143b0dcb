package transition

import "leadflow/internal/arbiter"

// State is the lifecycle position of a draft.
type State int

const (
	StateIdle State = iota
	StateDrafting
	StateAwaitingContingentAction
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrafting:
		return "drafting"
	case StateAwaitingContingentAction:
		return "awaiting_contingent_action"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Outcome is how a Submit call ended when it did not fail.
type Outcome int

const (
	// OutcomeCommitted means the update reached the server.
	OutcomeCommitted Outcome = iota + 1
	// OutcomeDeferred means a contingent action must complete first.
	OutcomeDeferred
	// OutcomeCommentOpened is the one-time detour for optional reminders.
	OutcomeCommentOpened
	// OutcomeNoChange means there was nothing to send.
	OutcomeNoChange
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeCommentOpened:
		return "comment_opened"
	case OutcomeNoChange:
		return "no_change"
	default:
		return "unknown"
	}
}

// ContingentKind names an action that gates a status change.
type ContingentKind string

const (
	KindReminder ContingentKind = "reminder"
	KindMeeting  ContingentKind = "meeting"
)

// ModalID is the arbiter key of the modal that performs the action.
func (k ContingentKind) ModalID() string {
	if k == KindMeeting {
		return arbiter.MeetingModal
	}
	return arbiter.ReminderModal
}
