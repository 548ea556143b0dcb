package lead

import "leadflow/internal/domain"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User is the public view of a signed-in user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Ref struct {
	ID string `json:"id" validate:"required"`
}

// UpdateLeadRequest is the body of PATCH /leads/:id. Absent members are
// left unchanged.
type UpdateLeadRequest struct {
	Status        *Ref              `json:"LeadStatus"`
	Source        *Ref              `json:"LeadSource"`
	Tags          *[]Ref            `json:"tags"`
	Comment       string            `json:"updateDescription" validate:"max=4000"`
	Description   *string           `json:"description" validate:"omitempty,max=4000"`
	Type          *string           `json:"Type" validate:"omitempty,max=255"`
	Project       *string           `json:"Project" validate:"omitempty,max=255"`
	Budget        *string           `json:"Budget" validate:"omitempty,max=255"`
	DynamicFields map[string]string `json:"dynamicFields"`
	AssignedTo    *string           `json:"assignedTo" validate:"omitempty,max=255"`
}

// BulkUpdateRequest is the body of PATCH /leads/bulk.
type BulkUpdateRequest struct {
	LeadIDs      []string            `json:"leadIds" validate:"required,min=1,max=500,dive,required"`
	Status       *Ref                `json:"LeadStatus"`
	Source       *Ref                `json:"LeadSource"`
	Tags         []Ref               `json:"tags" validate:"required_with=TagOperation"`
	TagOperation domain.TagOperation `json:"tagOperation" validate:"omitempty,oneof=add remove"`
	Comment      string              `json:"updateDescription" validate:"max=4000"`
}

type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

// ListParams are the paging and filter query parameters of list endpoints.
type ListParams struct {
	Page   int
	Limit  int
	Filter domain.Filter
}
