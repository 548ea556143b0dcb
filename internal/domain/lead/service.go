package lead

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"leadflow/internal/clock"
	"leadflow/internal/domain"
	"leadflow/internal/pkg/jwt"
	"leadflow/internal/reconcile"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service handles lead business logic
type Service struct {
	repo  *Repository
	jwt   *jwt.Service
	clock clock.Clock
}

// NewService creates lead service
func NewService(repo *Repository, jwtService *jwt.Service, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{
		repo:  repo,
		jwt:   jwtService,
		clock: clk,
	}
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Name)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token: token,
		User:  User{ID: user.ID, Email: user.Email, Name: user.Name},
	}, nil
}

// HashPassword returns the bcrypt hash stored for a user password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GetLead returns one lead.
func (s *Service) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	rec, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrLeadNotFound
	}
	l := toDomainLead(rec)
	return &l, nil
}

// Comments returns the comment history of a lead, newest first.
func (s *Service) Comments(ctx context.Context, id string) ([]domain.Comment, error) {
	rec, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrLeadNotFound
	}
	records, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Comment, 0, len(records))
	for _, c := range records {
		out = append(out, domain.Comment{Content: c.Content, Author: c.Author, CreatedAt: c.CreatedAt})
	}
	return out, nil
}

// UpdateLead applies a partial update made by actor and returns the stored
// lead. A comment or a status change records contact time; a comment is
// also appended to the history.
func (s *Service) UpdateLead(ctx context.Context, id string, req *UpdateLeadRequest, actor string) (*domain.Lead, error) {
	var updated domain.Lead
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		rec, err := tx.GetLead(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrLeadNotFound
		}

		u, err := resolveUpdate(ctx, tx, req)
		if err != nil {
			return err
		}
		if u.IsEmpty() {
			return ErrEmptyUpdate
		}

		updated, err = s.apply(ctx, tx, rec, u, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("lead_updated lead_id=%s actor=%q status=%s comment=%t", id, actor, updated.Status.ID, strings.TrimSpace(req.Comment) != "")
	return &updated, nil
}

// BulkUpdate applies one change to every listed lead that exists and
// returns how many were updated.
func (s *Service) BulkUpdate(ctx context.Context, req *BulkUpdateRequest, actor string) (int, error) {
	if len(req.Tags) > 0 && req.TagOperation == "" {
		return 0, ErrTagOperation
	}

	updated := 0
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		b, err := resolveBulk(ctx, tx, req)
		if err != nil {
			return err
		}
		if b.IsEmpty() {
			return ErrEmptyUpdate
		}

		for _, id := range uniqueIDs(req.LeadIDs) {
			rec, err := tx.GetLead(ctx, id)
			if err != nil {
				return err
			}
			if rec == nil {
				log.Printf("bulk_update_skip lead_id=%s reason=not_found", id)
				continue
			}
			u := reconcile.ForLead(toDomainLead(rec), b)
			if _, err := s.apply(ctx, tx, rec, u, actor); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("leads_bulk_updated count=%d requested=%d actor=%q", updated, len(req.LeadIDs), actor)
	return updated, nil
}

// apply stores the result of reconciling u into rec, so the server and the
// client's optimistic copy agree on every derived field.
func (s *Service) apply(ctx context.Context, tx *Repository, rec *LeadRecord, u domain.Update, actor string) (domain.Lead, error) {
	now := s.clock.Now().UTC()
	next := reconcile.Apply(toDomainLead(rec), u, actor, now)

	if err := writeLead(rec, next); err != nil {
		return domain.Lead{}, err
	}
	rec.UpdatedAt = now
	if err := tx.SaveLead(ctx, rec); err != nil {
		return domain.Lead{}, err
	}

	if u.Tags != nil {
		ids := make([]string, 0, len(*u.Tags))
		for _, t := range *u.Tags {
			ids = append(ids, t.ID)
		}
		tags, err := tx.GetTags(ctx, ids)
		if err != nil {
			return domain.Lead{}, err
		}
		if err := tx.ReplaceTags(ctx, rec, tags); err != nil {
			return domain.Lead{}, err
		}
	}

	if next.LastComment != nil && u.Comment != "" {
		comment := &CommentRecord{
			ID:        uuid.NewString(),
			LeadID:    rec.ID,
			Content:   next.LastComment.Content,
			Author:    actor,
			CreatedAt: now,
		}
		if err := tx.AddComment(ctx, comment); err != nil {
			return domain.Lead{}, err
		}
	}
	return next, nil
}

// ListLeads returns one page of leads matching params.Filter.
func (s *Service) ListLeads(ctx context.Context, params ListParams) (domain.Page[domain.Lead], error) {
	page, limit := normalizePaging(params.Page, params.Limit)
	recs, total, err := s.repo.ListLeads(ctx, params.Filter, limit, (page-1)*limit)
	if err != nil {
		return domain.Page[domain.Lead]{}, err
	}

	items := make([]domain.Lead, 0, len(recs))
	for i := range recs {
		items = append(items, toDomainLead(&recs[i]))
	}
	return newPage(items, page, limit, total), nil
}

// ListCampaignLeads lists the leads of one campaign.
func (s *Service) ListCampaignLeads(ctx context.Context, campaignID string, params ListParams) (domain.Page[domain.Lead], error) {
	campaign, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return domain.Page[domain.Lead]{}, err
	}
	if campaign == nil {
		return domain.Page[domain.Lead]{}, ErrCampaignNotFound
	}
	params.Filter.CampaignID = campaignID
	return s.ListLeads(ctx, params)
}

func (s *Service) ListCampaigns(ctx context.Context, params ListParams) (domain.Page[domain.Campaign], error) {
	page, limit := normalizePaging(params.Page, params.Limit)
	rows, total, err := s.repo.ListCampaigns(ctx, params.Filter.Search, limit, (page-1)*limit)
	if err != nil {
		return domain.Page[domain.Campaign]{}, err
	}

	items := make([]domain.Campaign, 0, len(rows))
	for _, r := range rows {
		items = append(items, domain.Campaign{ID: r.ID, Name: r.Name, LeadCount: r.LeadCount})
	}
	return newPage(items, page, limit, total), nil
}

func (s *Service) Statuses(ctx context.Context) ([]domain.StatusOption, error) {
	recs, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StatusOption, 0, len(recs))
	for _, r := range recs {
		out = append(out, toStatusOption(r))
	}
	return out, nil
}

func (s *Service) Sources(ctx context.Context) ([]domain.Source, error) {
	recs, err := s.repo.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Source, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Source{ID: r.ID, Label: r.Label})
	}
	return out, nil
}

func (s *Service) Tags(ctx context.Context) ([]domain.Tag, error) {
	recs, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Tag, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Tag{ID: r.ID, Label: r.Label})
	}
	return out, nil
}

func (s *Service) RequirementFields(ctx context.Context) ([]domain.RequirementField, error) {
	recs, err := s.repo.ListRequirementFields(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RequirementField, 0, len(recs))
	for _, r := range recs {
		f := domain.RequirementField{Key: r.Key, Label: r.Label, Kind: domain.FieldKind(r.Kind)}
		if r.Options != "" {
			if err := json.Unmarshal([]byte(r.Options), &f.Options); err != nil {
				log.Printf("requirement_field_options_invalid key=%s error=%v", r.Key, err)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// resolveUpdate turns a request into a domain update, filling labels from
// the stored catalogs and rejecting unknown references.
func resolveUpdate(ctx context.Context, tx *Repository, req *UpdateLeadRequest) (domain.Update, error) {
	u := domain.Update{
		Comment:       strings.TrimSpace(req.Comment),
		Description:   req.Description,
		Type:          req.Type,
		Project:       req.Project,
		Budget:        req.Budget,
		DynamicFields: req.DynamicFields,
		AssignedTo:    req.AssignedTo,
	}

	var err error
	if req.Status != nil {
		if u.Status, err = resolveStatus(ctx, tx, req.Status.ID); err != nil {
			return u, err
		}
	}
	if req.Source != nil {
		if u.Source, err = resolveSource(ctx, tx, req.Source.ID); err != nil {
			return u, err
		}
	}
	if req.Tags != nil {
		tags, err := resolveTags(ctx, tx, *req.Tags)
		if err != nil {
			return u, err
		}
		u.Tags = &tags
	}
	return u, nil
}

func resolveBulk(ctx context.Context, tx *Repository, req *BulkUpdateRequest) (domain.BulkUpdate, error) {
	b := domain.BulkUpdate{
		LeadIDs:      req.LeadIDs,
		TagOperation: req.TagOperation,
		Comment:      strings.TrimSpace(req.Comment),
	}

	var err error
	if req.Status != nil {
		if b.Status, err = resolveStatus(ctx, tx, req.Status.ID); err != nil {
			return b, err
		}
	}
	if req.Source != nil {
		if b.Source, err = resolveSource(ctx, tx, req.Source.ID); err != nil {
			return b, err
		}
	}
	if len(req.Tags) > 0 {
		if b.Tags, err = resolveTags(ctx, tx, req.Tags); err != nil {
			return b, err
		}
	}
	return b, nil
}

func resolveStatus(ctx context.Context, tx *Repository, id string) (*domain.Status, error) {
	rec, err := tx.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUnknownStatus
	}
	return &domain.Status{ID: rec.ID, Label: rec.Label, Color: rec.Color}, nil
}

func resolveSource(ctx context.Context, tx *Repository, id string) (*domain.Source, error) {
	rec, err := tx.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUnknownSource
	}
	return &domain.Source{ID: rec.ID, Label: rec.Label}, nil
}

func resolveTags(ctx context.Context, tx *Repository, refs []Ref) ([]domain.Tag, error) {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	ids = uniqueIDs(ids)

	recs, err := tx.GetTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(recs) != len(ids) {
		return nil, ErrUnknownTag
	}
	tags := make([]domain.Tag, 0, len(recs))
	for _, r := range recs {
		tags = append(tags, domain.Tag{ID: r.ID, Label: r.Label})
	}
	return tags, nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func newPage[T any](items []T, page, limit int, total int64) domain.Page[T] {
	count := int(total)
	pages := (count + limit - 1) / limit
	hasNext := page < pages
	return domain.Page[T]{
		Items:       items,
		TotalCount:  &count,
		TotalPages:  &pages,
		HasNextPage: &hasNext,
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
