package reconcile

import (
	"time"

	"leadflow/internal/domain"
)

// ForLead expresses a bulk change as the partial update it amounts to for
// one lead. Tag add/remove is resolved against the lead's current tags.
func ForLead(lead domain.Lead, b domain.BulkUpdate) domain.Update {
	u := domain.Update{
		Status:  b.Status,
		Source:  b.Source,
		Comment: b.Comment,
	}
	if len(b.Tags) == 0 {
		return u
	}

	tags := append([]domain.Tag{}, lead.Tags...)
	switch b.TagOperation {
	case domain.TagAdd:
		for _, t := range b.Tags {
			if !lead.HasTag(t.ID) {
				tags = append(tags, t)
			}
		}
	case domain.TagRemove:
		drop := make(map[string]struct{}, len(b.Tags))
		for _, t := range b.Tags {
			drop[t.ID] = struct{}{}
		}
		kept := tags[:0]
		for _, t := range tags {
			if _, ok := drop[t.ID]; !ok {
				kept = append(kept, t)
			}
		}
		tags = kept
	default:
		return u
	}
	u.Tags = &tags
	return u
}

// ApplyBulk reconciles a bulk change into every listed lead present in
// leads and returns the new slice and how many leads were updated.
func ApplyBulk(leads []domain.Lead, b domain.BulkUpdate, actor string, now time.Time) ([]domain.Lead, int) {
	targets := make(map[string]struct{}, len(b.LeadIDs))
	for _, id := range b.LeadIDs {
		targets[id] = struct{}{}
	}
	out := make([]domain.Lead, len(leads))
	n := 0
	for i, l := range leads {
		if _, ok := targets[l.ID]; !ok {
			out[i] = l
			continue
		}
		out[i] = Apply(l, ForLead(l, b), actor, now)
		n++
	}
	return out, n
}
