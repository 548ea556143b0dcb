package main

import (
	"context"
	"flag"
	"log"

	"leadflow/internal/config"
	"leadflow/internal/database"
	"leadflow/internal/domain/lead"
)

func main() {
	leads := flag.Int("leads", 60, "number of demo leads")
	reset := flag.Bool("reset", true, "delete existing data first")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	ctx := context.Background()
	repo := lead.NewRepository(db)

	log.Println("Running AutoMigrate...")
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	if *reset {
		// Cleanup old data (in safe order to avoid foreign key errors)
		log.Println("Cleaning old data...")
		for _, table := range []string{
			"lead_comments", "lead_tags", "leads", "campaigns", "requirement_fields",
			"tags", "lead_sources", "lead_statuses", "users",
		} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				log.Fatalf("cleanup %s failed: %v", table, err)
			}
		}
	}

	if err := lead.Seed(ctx, repo, lead.SeedOptions{Leads: *leads}); err != nil {
		log.Fatal("Seed failed:", err)
	}
	log.Printf("Seeded %d leads. Login: %s / %s", *leads, lead.DemoEmail, lead.DemoPassword)
}
