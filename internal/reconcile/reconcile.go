// Package reconcile merges a server-confirmed partial update into a locally
// held lead so lists can repaint without re-fetching.
package reconcile

import (
	"strings"
	"time"

	"leadflow/internal/domain"
)

// Apply returns lead with u merged in. It never mutates lead: callers diff
// list entries by identity.
//
// A status change to a different id, or a non-empty comment, stamps
// LastContactedAt with now. A comment also becomes the LastComment preview,
// authored by actor, and bumps VisibleCommentCount by one. Applying the same
// comment twice therefore counts two comments.
func Apply(lead domain.Lead, u domain.Update, actor string, now time.Time) domain.Lead {
	out := Clone(lead)

	statusChanged := u.Status != nil && u.Status.ID != lead.Status.ID
	comment := strings.TrimSpace(u.Comment)

	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.Source != nil {
		out.Source = *u.Source
	}
	if u.Tags != nil {
		out.Tags = append([]domain.Tag{}, (*u.Tags)...)
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Type != nil {
		out.Requirements.Type = *u.Type
	}
	if u.Project != nil {
		out.Requirements.Project = *u.Project
	}
	if u.Budget != nil {
		out.Requirements.Budget = *u.Budget
	}
	if len(u.DynamicFields) > 0 {
		if out.Requirements.Dynamic == nil {
			out.Requirements.Dynamic = make(map[string]string, len(u.DynamicFields))
		}
		for k, v := range u.DynamicFields {
			out.Requirements.Dynamic[k] = v
		}
	}
	if u.AssignedTo != nil {
		out.AssignedTo = *u.AssignedTo
	}

	if statusChanged || comment != "" {
		at := now
		out.LastContactedAt = &at
	}
	if comment != "" {
		out.LastComment = &domain.Comment{
			Content:   comment,
			Author:    actor,
			CreatedAt: now,
		}
		out.VisibleCommentCount++
	}
	return out
}

// Clone deep-copies the reference members of a lead.
func Clone(lead domain.Lead) domain.Lead {
	out := lead
	if lead.Tags != nil {
		out.Tags = append([]domain.Tag{}, lead.Tags...)
	}
	if lead.Requirements.Dynamic != nil {
		out.Requirements.Dynamic = make(map[string]string, len(lead.Requirements.Dynamic))
		for k, v := range lead.Requirements.Dynamic {
			out.Requirements.Dynamic[k] = v
		}
	}
	if lead.LastContactedAt != nil {
		at := *lead.LastContactedAt
		out.LastContactedAt = &at
	}
	if lead.LastComment != nil {
		c := *lead.LastComment
		out.LastComment = &c
	}
	return out
}
