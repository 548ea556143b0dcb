package lead

import (
	"encoding/json"
	"fmt"
	"log"

	"leadflow/internal/domain"
)

func toDomainLead(rec *LeadRecord) domain.Lead {
	l := domain.Lead{
		ID:          rec.ID,
		Name:        rec.Name,
		Phone:       rec.Phone,
		Status:      domain.Status{ID: rec.Status.ID, Label: rec.Status.Label, Color: rec.Status.Color},
		Source:      domain.Source{ID: rec.Source.ID, Label: rec.Source.Label},
		Tags:        make([]domain.Tag, 0, len(rec.Tags)),
		Description: rec.Description,
		Requirements: domain.Requirements{
			Type:    rec.ReqType,
			Project: rec.ReqProject,
			Budget:  rec.ReqBudget,
		},
		LastContactedAt:     rec.LastContactedAt,
		VisibleCommentCount: rec.CommentCount,
		AssignedTo:          rec.AssignedTo,
	}
	if l.Status.ID == "" {
		l.Status.ID = rec.StatusID
	}
	if l.Source.ID == "" {
		l.Source.ID = rec.SourceID
	}
	if rec.CampaignID != nil {
		l.CampaignID = *rec.CampaignID
	}
	for _, t := range rec.Tags {
		l.Tags = append(l.Tags, domain.Tag{ID: t.ID, Label: t.Label})
	}
	if rec.DynamicFields != "" {
		if err := json.Unmarshal([]byte(rec.DynamicFields), &l.Requirements.Dynamic); err != nil {
			log.Printf("lead_dynamic_fields_invalid lead_id=%s error=%v", rec.ID, err)
		}
	}
	if rec.CommentCount > 0 && rec.LastCommentAt != nil {
		l.LastComment = &domain.Comment{
			Content:   rec.LastCommentText,
			Author:    rec.LastCommentAuthor,
			CreatedAt: *rec.LastCommentAt,
		}
	}
	return l
}

// writeLead copies the mutable fields of l back onto rec. Tags are stored
// through the association, not here.
func writeLead(rec *LeadRecord, l domain.Lead) error {
	rec.StatusID = l.Status.ID
	rec.Status = StatusRecord{ID: l.Status.ID, Label: l.Status.Label, Color: l.Status.Color}
	rec.SourceID = l.Source.ID
	rec.Source = SourceRecord{ID: l.Source.ID, Label: l.Source.Label}
	rec.Description = l.Description
	rec.AssignedTo = l.AssignedTo
	rec.ReqType = l.Requirements.Type
	rec.ReqProject = l.Requirements.Project
	rec.ReqBudget = l.Requirements.Budget

	rec.DynamicFields = ""
	if len(l.Requirements.Dynamic) > 0 {
		raw, err := json.Marshal(l.Requirements.Dynamic)
		if err != nil {
			return fmt.Errorf("encode dynamic fields: %w", err)
		}
		rec.DynamicFields = string(raw)
	}

	rec.CommentCount = l.VisibleCommentCount
	rec.LastContactedAt = l.LastContactedAt
	if l.LastComment != nil {
		at := l.LastComment.CreatedAt
		rec.LastCommentText = l.LastComment.Content
		rec.LastCommentAuthor = l.LastComment.Author
		rec.LastCommentAt = &at
	}
	return nil
}

func toStatusOption(r StatusRecord) domain.StatusOption {
	req := domain.ReminderRequirement(r.RequiresReminder)
	switch req {
	case domain.ReminderYes, domain.ReminderNo, domain.ReminderOptional:
	default:
		req = domain.ReminderNo
	}
	return domain.StatusOption{ID: r.ID, Label: r.Label, Color: r.Color, RequiresReminder: req}
}
