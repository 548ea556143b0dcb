package transition

import (
	"strings"

	"leadflow/internal/domain"
)

// Draft is the not-yet-submitted change for one lead.
type Draft struct {
	// BaseStatus is the lead status when drafting began. Status changes are
	// measured against it even if the lead has advanced elsewhere since.
	BaseStatus domain.Status

	Status      *domain.StatusOption
	Source      *domain.Source
	Tags        []domain.Tag
	TagsChanged bool
	Comment     string
	CommentOpen bool

	ReminderAdded bool
	MeetingAdded  bool

	// OptionalPromptShown records that the optional-reminder detour has
	// been taken once for this draft.
	OptionalPromptShown bool

	// Requirements holds drafted requirement values keyed by field key.
	Requirements map[string]string
}

func newDraft(lead domain.Lead) Draft {
	return Draft{BaseStatus: lead.Status}
}

// StatusChanged reports whether the drafted status differs from the base.
func (d *Draft) StatusChanged() bool {
	return d.Status != nil && d.Status.ID != d.BaseStatus.ID
}

func (d *Draft) clone() Draft {
	out := *d
	if d.Status != nil {
		s := *d.Status
		out.Status = &s
	}
	if d.Source != nil {
		s := *d.Source
		out.Source = &s
	}
	if d.Tags != nil {
		out.Tags = append([]domain.Tag{}, d.Tags...)
	}
	if d.Requirements != nil {
		out.Requirements = make(map[string]string, len(d.Requirements))
		for k, v := range d.Requirements {
			out.Requirements[k] = v
		}
	}
	return out
}

// WordCount counts whitespace-separated words after trimming.
func WordCount(s string) int {
	return len(strings.Fields(strings.TrimSpace(s)))
}

func sameTags(a, b []domain.Tag) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, t := range a {
		seen[t.ID] = struct{}{}
	}
	for _, t := range b {
		if _, ok := seen[t.ID]; !ok {
			return false
		}
	}
	return true
}
