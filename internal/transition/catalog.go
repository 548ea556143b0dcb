package transition

import (
	"context"
	"log/slog"

	"leadflow/internal/domain"
)

// CatalogSource fetches the server-defined catalogs the workflow reads.
type CatalogSource interface {
	FetchStatusCatalog(ctx context.Context) ([]domain.StatusOption, error)
	FetchRequirementFieldCatalog(ctx context.Context) ([]domain.RequirementField, error)
}

// Catalog is the auxiliary data a card needs to draft a change.
type Catalog struct {
	Statuses []domain.StatusOption
	Fields   []domain.RequirementField

	// StatusFallback and FieldFallback are set when the fetch failed and
	// built-in defaults were substituted.
	StatusFallback bool
	FieldFallback  bool
}

// DefaultRequirementFields is used when the field catalog is unavailable.
func DefaultRequirementFields() []domain.RequirementField {
	return []domain.RequirementField{
		{Key: domain.FieldType, Label: "Type", Kind: domain.FieldString},
		{Key: domain.FieldProject, Label: "Project", Kind: domain.FieldString},
		{Key: domain.FieldBudget, Label: "Budget", Kind: domain.FieldString},
	}
}

// LoadCatalog fetches both catalogs. Failures are logged and replaced by
// defaults so the workflow stays usable; they are never returned.
func LoadCatalog(ctx context.Context, src CatalogSource, logger *slog.Logger) Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	var cat Catalog

	statuses, err := src.FetchStatusCatalog(ctx)
	if err != nil {
		logger.Warn("status catalog unavailable, using empty catalog", "error", err)
		cat.StatusFallback = true
	} else {
		cat.Statuses = statuses
	}

	fields, err := src.FetchRequirementFieldCatalog(ctx)
	if err != nil || len(fields) == 0 {
		if err != nil {
			logger.Warn("requirement field catalog unavailable, using defaults", "error", err)
		}
		cat.Fields = DefaultRequirementFields()
		cat.FieldFallback = err != nil
	} else {
		cat.Fields = fields
	}
	return cat
}

// Status looks up a status option by id.
func (c Catalog) Status(id string) (domain.StatusOption, bool) {
	for _, s := range c.Statuses {
		if s.ID == id {
			return s, true
		}
	}
	return domain.StatusOption{}, false
}

func (c Catalog) fields() []domain.RequirementField {
	if len(c.Fields) == 0 {
		return DefaultRequirementFields()
	}
	return c.Fields
}
