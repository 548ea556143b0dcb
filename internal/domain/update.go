package domain

// TagOperation selects how a bulk tag change is applied.
type TagOperation string

const (
	TagAdd    TagOperation = "add"
	TagRemove TagOperation = "remove"
)

// Update is a partial lead change. Nil members are absent, not cleared.
type Update struct {
	Status        *Status           `json:"LeadStatus,omitempty"`
	Source        *Source           `json:"LeadSource,omitempty"`
	Tags          *[]Tag            `json:"tags,omitempty"`
	Comment       string            `json:"updateDescription,omitempty"`
	Description   *string           `json:"description,omitempty"`
	Type          *string           `json:"Type,omitempty"`
	Project       *string           `json:"Project,omitempty"`
	Budget        *string           `json:"Budget,omitempty"`
	DynamicFields map[string]string `json:"dynamicFields,omitempty"`
	AssignedTo    *string           `json:"assignedTo,omitempty"`
}

// IsEmpty reports whether the update carries no field at all.
func (u Update) IsEmpty() bool {
	return u.Status == nil &&
		u.Source == nil &&
		u.Tags == nil &&
		u.Comment == "" &&
		u.Description == nil &&
		u.Type == nil &&
		u.Project == nil &&
		u.Budget == nil &&
		len(u.DynamicFields) == 0 &&
		u.AssignedTo == nil
}

// BulkUpdate applies one change to several leads.
type BulkUpdate struct {
	LeadIDs      []string     `json:"leadIds"`
	Status       *Status      `json:"LeadStatus,omitempty"`
	Source       *Source      `json:"LeadSource,omitempty"`
	Tags         []Tag        `json:"tags,omitempty"`
	TagOperation TagOperation `json:"tagOperation,omitempty"`
	Comment      string       `json:"updateDescription,omitempty"`
}

// IsEmpty reports whether the bulk update changes nothing.
func (b BulkUpdate) IsEmpty() bool {
	return b.Status == nil && b.Source == nil && len(b.Tags) == 0 && b.Comment == ""
}
