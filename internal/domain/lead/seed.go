package lead

import (
	"context"
	"fmt"
	"time"
)

// Demo credentials created by Seed.
const (
	DemoEmail    = "dana@example.com"
	DemoPassword = "leadflow123"
	DemoName     = "Dana"
)

// SeedOptions controls Seed.
type SeedOptions struct {
	Leads    int
	Password string
	Now      time.Time
}

// Seed fills an empty database with a demo catalog, campaigns, leads and a
// user. Lead i is created one minute before lead i-1 so list order is
// stable.
func Seed(ctx context.Context, repo *Repository, opts SeedOptions) error {
	if opts.Password == "" {
		opts.Password = DemoPassword
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	statuses := []StatusRecord{
		{ID: "new", Label: "New", Color: "#9e9e9e", RequiresReminder: "no", Position: 1},
		{ID: "contacted", Label: "Contacted", Color: "#2196f3", RequiresReminder: "no", Position: 2},
		{ID: "follow-up", Label: "Follow Up", Color: "#ff9800", RequiresReminder: "yes", Position: 3},
		{ID: "interested", Label: "Interested", Color: "#8bc34a", RequiresReminder: "optional", Position: 4},
		{ID: "meeting", Label: "Meeting", Color: "#673ab7", RequiresReminder: "no", Position: 5},
		{ID: "rnr", Label: "RNR", Color: "#795548", RequiresReminder: "no", Position: 6},
		{ID: "closure", Label: "Closure", Color: "#4caf50", RequiresReminder: "no", Position: 7},
	}
	sources := []SourceRecord{
		{ID: "website", Label: "Website"},
		{ID: "referral", Label: "Referral"},
		{ID: "walk-in", Label: "Walk-in"},
	}
	tags := []TagRecord{
		{ID: "hot", Label: "Hot"},
		{ID: "investor", Label: "Investor"},
		{ID: "vip", Label: "VIP"},
	}
	campaigns := []CampaignRecord{
		{ID: "spring-expo", Name: "Spring Expo", CreatedAt: opts.Now.Add(-48 * time.Hour)},
		{ID: "sea-view-launch", Name: "Sea View Launch", CreatedAt: opts.Now.Add(-24 * time.Hour)},
	}
	fields := []RequirementFieldRecord{
		{Key: "Type", Label: "Type", Kind: "select", Options: `["Apartment","Villa","Office"]`, Position: 1},
		{Key: "Project", Label: "Project", Kind: "string", Position: 2},
		{Key: "Budget", Label: "Budget", Kind: "number", Position: 3},
		{Key: "bedrooms", Label: "Bedrooms", Kind: "number", Position: 4},
		{Key: "view", Label: "View", Kind: "select", Options: `["Sea","City","Garden"]`, Position: 5},
	}

	hash, err := HashPassword(opts.Password)
	if err != nil {
		return err
	}
	user := UserRecord{ID: "user-dana", Email: DemoEmail, Name: DemoName, PasswordHash: hash, CreatedAt: opts.Now}

	return repo.Transaction(ctx, func(tx *Repository) error {
		for _, batch := range []any{&statuses, &sources, &tags, &campaigns, &fields, &user} {
			if err := tx.Create(ctx, batch); err != nil {
				return fmt.Errorf("seed %T: %w", batch, err)
			}
		}

		for i := 0; i < opts.Leads; i++ {
			rec := &LeadRecord{
				ID:        fmt.Sprintf("lead-%03d", i+1),
				Name:      fmt.Sprintf("Lead %03d", i+1),
				Phone:     fmt.Sprintf("+971 50 000 %04d", i+1),
				StatusID:  statuses[i%2].ID,
				SourceID:  sources[i%len(sources)].ID,
				ReqType:   "Apartment",
				CreatedAt: opts.Now.Add(-time.Duration(i) * time.Minute),
				UpdatedAt: opts.Now.Add(-time.Duration(i) * time.Minute),
			}
			if i%3 == 0 {
				rec.CampaignID = &campaigns[i%2].ID
			}
			if err := tx.Create(ctx, rec); err != nil {
				return fmt.Errorf("seed lead %s: %w", rec.ID, err)
			}
			if i%4 == 0 {
				if err := tx.ReplaceTags(ctx, rec, []TagRecord{tags[i%len(tags)]}); err != nil {
					return fmt.Errorf("seed lead tags %s: %w", rec.ID, err)
				}
			}
		}
		return nil
	})
}
