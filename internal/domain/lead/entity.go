package lead

import (
	"time"
)

// StatusRecord is a configurable lead status.
type StatusRecord struct {
	ID               string `gorm:"column:id;primaryKey"`
	Label            string `gorm:"column:label;not null"`
	Color            string `gorm:"column:color"`
	RequiresReminder string `gorm:"column:requires_reminder;not null;default:no"`
	Position         int    `gorm:"column:position"`
}

func (StatusRecord) TableName() string { return "lead_statuses" }

type SourceRecord struct {
	ID    string `gorm:"column:id;primaryKey"`
	Label string `gorm:"column:label;not null"`
}

func (SourceRecord) TableName() string { return "lead_sources" }

type TagRecord struct {
	ID    string `gorm:"column:id;primaryKey"`
	Label string `gorm:"column:label;not null"`
}

func (TagRecord) TableName() string { return "tags" }

type CampaignRecord struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (CampaignRecord) TableName() string { return "campaigns" }

// RequirementFieldRecord is a server-defined requirement attribute. Options
// holds a JSON array for select fields.
type RequirementFieldRecord struct {
	Key      string `gorm:"column:key;primaryKey"`
	Label    string `gorm:"column:label;not null"`
	Kind     string `gorm:"column:kind;not null;default:string"`
	Options  string `gorm:"column:options"`
	Position int    `gorm:"column:position"`
}

func (RequirementFieldRecord) TableName() string { return "requirement_fields" }

// LeadRecord is a stored lead. The latest comment is kept on the row so
// lists need no extra query; the full history lives in lead_comments.
type LeadRecord struct {
	ID          string  `gorm:"column:id;primaryKey"`
	Name        string  `gorm:"column:name;not null"`
	Phone       string  `gorm:"column:phone"`
	StatusID    string  `gorm:"column:status_id;index"`
	SourceID    string  `gorm:"column:source_id;index"`
	CampaignID  *string `gorm:"column:campaign_id;index"`
	AssignedTo  string  `gorm:"column:assigned_to"`
	Description string  `gorm:"column:description;type:text"`

	ReqType       string `gorm:"column:req_type"`
	ReqProject    string `gorm:"column:req_project"`
	ReqBudget     string `gorm:"column:req_budget"`
	DynamicFields string `gorm:"column:dynamic_fields;type:text"`

	CommentCount      int        `gorm:"column:comment_count;not null;default:0"`
	LastCommentText   string     `gorm:"column:last_comment_text;type:text"`
	LastCommentAuthor string     `gorm:"column:last_comment_author"`
	LastCommentAt     *time.Time `gorm:"column:last_comment_at"`
	LastContactedAt   *time.Time `gorm:"column:last_contacted_at"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Status StatusRecord `gorm:"foreignKey:StatusID"`
	Source SourceRecord `gorm:"foreignKey:SourceID"`
	Tags   []TagRecord  `gorm:"many2many:lead_tags;joinForeignKey:LeadID;joinReferences:TagID"`
}

func (LeadRecord) TableName() string { return "leads" }

type CommentRecord struct {
	ID        string    `gorm:"column:id;primaryKey"`
	LeadID    string    `gorm:"column:lead_id;not null;index"`
	Content   string    `gorm:"column:content;type:text;not null"`
	Author    string    `gorm:"column:author"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (CommentRecord) TableName() string { return "lead_comments" }

// UserRecord is a CRM user who can sign in.
type UserRecord struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (UserRecord) TableName() string { return "users" }

// Models lists every table of the service, in migration order.
func Models() []any {
	return []any{
		&StatusRecord{},
		&SourceRecord{},
		&TagRecord{},
		&CampaignRecord{},
		&RequirementFieldRecord{},
		&LeadRecord{},
		&CommentRecord{},
		&UserRecord{},
	}
}
