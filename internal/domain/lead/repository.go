package lead

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadflow/internal/domain"
)

// Repository handles lead data access
type Repository struct {
	db *gorm.DB
}

// NewRepository creates lead repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates every table of the service.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(Models()...)
}

// Transaction runs fn with a repository bound to one database transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Create inserts any service record; used by seeding.
func (r *Repository) Create(ctx context.Context, value any) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(value).Error
}

// GetLead returns the lead with its status, source and tags, or nil.
func (r *Repository) GetLead(ctx context.Context, id string) (*LeadRecord, error) {
	var rec LeadRecord
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Source").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.label") }).
		First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) filteredLeads(ctx context.Context, f domain.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&LeadRecord{})
	if f.StatusID != "" {
		q = q.Where("leads.status_id = ?", f.StatusID)
	}
	if f.SourceID != "" {
		q = q.Where("leads.source_id = ?", f.SourceID)
	}
	if f.CampaignID != "" {
		q = q.Where("leads.campaign_id = ?", f.CampaignID)
	}
	if f.TagID != "" {
		q = q.Where("leads.id IN (SELECT lead_id FROM lead_tags WHERE tag_id = ?)", f.TagID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(leads.name) LIKE ? OR leads.phone LIKE ?)", like, like)
	}
	return q
}

// ListLeads returns one page of leads, newest first, and the total match count.
func (r *Repository) ListLeads(ctx context.Context, f domain.Filter, limit, offset int) ([]LeadRecord, int64, error) {
	var total int64
	if err := r.filteredLeads(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []LeadRecord
	err := r.filteredLeads(ctx, f).
		Preload("Status").
		Preload("Source").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.label") }).
		Order("leads.created_at DESC").
		Order("leads.id").
		Limit(limit).
		Offset(offset).
		Find(&leads).Error
	return leads, total, err
}

// SaveLead writes the lead row; associations are managed separately.
func (r *Repository) SaveLead(ctx context.Context, rec *LeadRecord) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error
}

// ReplaceTags sets the lead's tags to exactly tags.
func (r *Repository) ReplaceTags(ctx context.Context, rec *LeadRecord, tags []TagRecord) error {
	assoc := r.db.WithContext(ctx).Model(rec).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

func (r *Repository) AddComment(ctx context.Context, c *CommentRecord) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// ListComments returns a lead's comments, newest first.
func (r *Repository) ListComments(ctx context.Context, leadID string) ([]CommentRecord, error) {
	var out []CommentRecord
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) GetStatus(ctx context.Context, id string) (*StatusRecord, error) {
	var rec StatusRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rec, err
}

func (r *Repository) GetSource(ctx context.Context, id string) (*SourceRecord, error) {
	var rec SourceRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rec, err
}

// GetTags returns the tags with the given ids that exist.
func (r *Repository) GetTags(ctx context.Context, ids []string) ([]TagRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []TagRecord
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("label").Find(&out).Error
	return out, err
}

func (r *Repository) ListStatuses(ctx context.Context) ([]StatusRecord, error) {
	var out []StatusRecord
	err := r.db.WithContext(ctx).Order("position").Order("label").Find(&out).Error
	return out, err
}

func (r *Repository) ListSources(ctx context.Context) ([]SourceRecord, error) {
	var out []SourceRecord
	err := r.db.WithContext(ctx).Order("label").Find(&out).Error
	return out, err
}

func (r *Repository) ListTags(ctx context.Context) ([]TagRecord, error) {
	var out []TagRecord
	err := r.db.WithContext(ctx).Order("label").Find(&out).Error
	return out, err
}

func (r *Repository) ListRequirementFields(ctx context.Context) ([]RequirementFieldRecord, error) {
	var out []RequirementFieldRecord
	err := r.db.WithContext(ctx).Order("position").Order("label").Find(&out).Error
	return out, err
}

// CampaignRow is a campaign with its lead count.
type CampaignRow struct {
	CampaignRecord
	LeadCount int `gorm:"column:lead_count"`
}

// ListCampaigns returns one page of campaigns with their lead counts.
func (r *Repository) ListCampaigns(ctx context.Context, search string, limit, offset int) ([]CampaignRow, int64, error) {
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&CampaignRecord{})
		if s := strings.TrimSpace(search); s != "" {
			q = q.Where("LOWER(campaigns.name) LIKE ?", "%"+strings.ToLower(s)+"%")
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []CampaignRow
	err := filtered().
		Select("campaigns.*, (SELECT COUNT(*) FROM leads WHERE leads.campaign_id = campaigns.id) AS lead_count").
		Order("campaigns.created_at DESC").
		Order("campaigns.id").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, total, err
}

func (r *Repository) GetCampaign(ctx context.Context, id string) (*CampaignRecord, error) {
	var rec CampaignRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rec, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	var rec UserRecord
	err := r.db.WithContext(ctx).First(&rec, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rec, err
}
