package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/propstack/claimsgo/internal/claims"
	"github.com/propstack/claimsgo/internal/config"
	"github.com/propstack/claimsgo/internal/coverage"
	"github.com/propstack/claimsgo/internal/database"
	"github.com/propstack/claimsgo/internal/models"
	"github.com/propstack/claimsgo/internal/storage"
	"github.com/propstack/claimsgo/internal/utils"
)

func main() {
	fmt.Println("🌱 Claims Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Property{},
		&models.Claim{},
		&models.ChecklistItem{},
		&models.ChecklistItemDocument{},
		&models.ClaimDocument{},
		&models.TimelineEvent{},
		&models.OutboxEvent{},
		&models.CoverageAnalysis{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	ctx := context.Background()

	// Demo user
	hashed, err := utils.HashPassword("demo1234")
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}
	user := models.UserAuth{
		Username: "demo",
		Password: hashed,
		Email:    "demo@example.com",
		Name:     "Demo User",
	}
	if err := db.Where("email = ?", user.Email).FirstOrCreate(&user).Error; err != nil {
		log.Fatalf("❌ Failed to seed user: %v", err)
	}
	fmt.Printf("👤 User: %s (password: demo1234)\n", user.Email)

	// Demo property
	property := models.Property{
		Name:    "14 Birchwood Lane",
		Address: "14 Birchwood Lane, Portland, OR",
	}
	if err := db.Where("name = ?", property.Name).FirstOrCreate(&property).Error; err != nil {
		log.Fatalf("❌ Failed to seed property: %v", err)
	}
	fmt.Printf("🏠 Property: %s (%s)\n", property.Name, property.ID)

	service := claims.NewService(db,
		storage.NewLocalStore(cfg.Storage.UploadDir, cfg.BaseURL),
		nil,
		coverage.NewCache(db),
	)

	// Assorted claims
	incident := time.Now().UTC().Add(-21 * 24 * time.Hour)
	estimate := 8500.0
	provider := "Acme Mutual"

	seeds := []claims.CreateClaimInput{
		{
			Title:               "Roof damage after March storm",
			Description:         "Wind lifted shingles over the garage; water staining in the ceiling below.",
			Type:                models.ClaimTypeInsurance,
			ProviderName:        &provider,
			IncidentAt:          &incident,
			EstimatedLossAmount: &estimate,
		},
		{
			Title: "Dishwasher stopped mid-cycle",
			Type:  models.ClaimTypeWarranty,
		},
		{
			Title: "Fence post rotting at the gate",
			Type:  models.ClaimTypeRepair,
		},
	}

	for _, input := range seeds {
		claim, err := service.CreateClaim(ctx, property.ID, user.ID, input)
		if err != nil {
			log.Fatalf("❌ Failed to seed claim %q: %v", input.Title, err)
		}
		fmt.Printf("📋 Claim: %s [%s] %s\n", claim.ID, claim.Type, claim.Title)
	}

	// Move the first claim along so insights have something to chew on
	var first models.Claim
	if err := db.Where("property_id = ?", property.ID).Order("created_at ASC").First(&first).Error; err == nil {
		status := models.ClaimStatusInProgress
		if _, err := service.UpdateClaim(ctx, property.ID, first.ID, user.ID, claims.UpdateClaimInput{
			Status: &status,
		}); err != nil {
			log.Printf("⚠️ Could not advance claim %s: %v", first.ID, err)
		} else {
			fmt.Printf("🔁 Advanced claim %s to IN_PROGRESS\n", first.ID)
		}
	}

	fmt.Println("✅ Seeding complete")
}
