package domain

// ReminderRequirement is the server-provided tri-state that drives contingent
// action gating for a status option.
type ReminderRequirement string

const (
	ReminderYes      ReminderRequirement = "yes"
	ReminderNo       ReminderRequirement = "no"
	ReminderOptional ReminderRequirement = "optional"
)

// Well-known status labels with client-side behaviour attached.
const (
	LabelMeeting = "Meeting"
	LabelClosure = "Closure"
	LabelRNR     = "RNR"
)

// StatusOption is one entry of the status catalog.
type StatusOption struct {
	ID               string              `json:"id"`
	Label            string              `json:"label"`
	Color            string              `json:"color,omitempty"`
	RequiresReminder ReminderRequirement `json:"requiresReminder"`
}

// Status returns the lead status this option sets.
func (o StatusOption) Status() Status {
	return Status{ID: o.ID, Label: o.Label, Color: o.Color}
}

// FieldKind is the input kind of a requirement field.
type FieldKind string

const (
	FieldString FieldKind = "string"
	FieldNumber FieldKind = "number"
	FieldSelect FieldKind = "select"
)

// Built-in requirement field keys.
const (
	FieldType    = "Type"
	FieldProject = "Project"
	FieldBudget  = "Budget"
)

// RequirementField describes one requirement attribute a lead can carry.
type RequirementField struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Options []string  `json:"options,omitempty"`
}

// Builtin reports whether the field maps onto a fixed Requirements member.
func (f RequirementField) Builtin() bool {
	switch f.Key {
	case FieldType, FieldProject, FieldBudget:
		return true
	}
	return false
}
