package domain

import "time"

// Status is the lead status as stored on a lead record.
type Status struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// Source is where a lead came from.
type Source struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Comment is the preview of the most recent comment on a lead.
type Comment struct {
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Requirements holds the lead's need attributes. Type, Project and Budget are
// built in; everything else the server defines lives in Dynamic.
type Requirements struct {
	Type    string            `json:"type,omitempty"`
	Project string            `json:"project,omitempty"`
	Budget  string            `json:"budget,omitempty"`
	Dynamic map[string]string `json:"dynamic,omitempty"`
}

// Lead is the client-held copy of a CRM lead record.
type Lead struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Phone               string       `json:"phone,omitempty"`
	Status              Status       `json:"status"`
	Source              Source       `json:"source"`
	Tags                []Tag        `json:"tags"`
	Description         string       `json:"description,omitempty"`
	Requirements        Requirements `json:"requirements"`
	LastContactedAt     *time.Time   `json:"last_contacted_at,omitempty"`
	LastComment         *Comment     `json:"last_comment,omitempty"`
	VisibleCommentCount int          `json:"visible_comment_count"`
	AssignedTo          string       `json:"assigned_to,omitempty"`
	CampaignID          string       `json:"campaign_id,omitempty"`
}

// HasTag reports whether the lead carries a tag with the given id.
func (l Lead) HasTag(id string) bool {
	for _, t := range l.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Campaign groups leads; it is listed by its own paginated screen.
type Campaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LeadCount int    `json:"lead_count"`
}
