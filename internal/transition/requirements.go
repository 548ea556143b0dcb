package transition

import (
	"strings"

	"leadflow/internal/domain"
)

// requirementChanges fills the requirement members of u with every drafted
// field that is non-blank and differs from the lead. Server-defined fields
// are collected into DynamicFields.
func requirementChanges(u *domain.Update, fields []domain.RequirementField, drafted map[string]string, lead domain.Lead) {
	for _, f := range fields {
		raw, ok := drafted[f.Key]
		if !ok {
			continue
		}
		value := strings.TrimSpace(raw)
		if value == "" || value == originalRequirement(lead, f.Key) {
			continue
		}
		v := value
		if !f.Builtin() {
			if u.DynamicFields == nil {
				u.DynamicFields = make(map[string]string)
			}
			u.DynamicFields[f.Key] = v
			continue
		}
		switch f.Key {
		case domain.FieldType:
			u.Type = &v
		case domain.FieldProject:
			u.Project = &v
		case domain.FieldBudget:
			u.Budget = &v
		}
	}
}

func originalRequirement(lead domain.Lead, key string) string {
	switch key {
	case domain.FieldType:
		return lead.Requirements.Type
	case domain.FieldProject:
		return lead.Requirements.Project
	case domain.FieldBudget:
		return lead.Requirements.Budget
	default:
		return lead.Requirements.Dynamic[key]
	}
}
