package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm/clause"

	"cloudvault/internal/database"
	"cloudvault/internal/domain/account"
	"cloudvault/internal/domain/file"
	"cloudvault/internal/domain/folder"
	"cloudvault/internal/domain/plan"
	"cloudvault/internal/domain/share"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&account.Account{},
		&plan.Plan{},
		&plan.Feature{},
		&plan.PlanFeature{},
		&plan.Subscription{},
		&folder.Folder{},
		&folder.PathRebuild{},
		&folder.NamespaceLock{},
		&file.CloudFile{},
		&share.ShareLink{},
		&share.ShareLinkFile{},
		&share.ShareLinkFolder{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Seeding plan catalog...")

	plans := []plan.Plan{
		{ID: plan.PlanFree, Name: "Free", Description: "For trying things out", PriceMonthly: 0, IsActive: true},
		{ID: plan.PlanPlus, Name: "Plus", Description: "For individuals", PriceMonthly: 9.90, IsActive: true},
		{ID: plan.PlanBusiness, Name: "Business", Description: "For teams", PriceMonthly: 29.90, IsActive: true},
	}
	for i := range plans {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&plans[i]).Error; err != nil {
			log.Fatal("seed plans: ", err)
		}
	}

	// Feature defaults apply to every plan; plan_features override key-by-key.
	features := []plan.Feature{
		{
			Code: plan.FeatureStorage,
			Name: "Storage",
			Metadata: plan.Metadata{
				plan.KeyMaxStorageMB:  1_000,
				plan.KeyMaxFileSizeMB: 100,
			},
		},
		{
			Code: plan.FeatureShareLinks,
			Name: "Share links",
			Metadata: plan.Metadata{
				plan.KeyMaxActiveLinks:          5,
				plan.KeyMaxExpirationDays:       7,
				plan.KeyCustomExpirationAllowed: false,
				plan.KeyPasswordAllowed:         false,
				plan.KeyFolderSharingAllowed:    false,
			},
		},
		{
			Code: plan.FeatureFolders,
			Name: "Folders",
			Metadata: plan.Metadata{
				plan.KeyFoldersEnabled: false,
			},
		},
	}
	for i := range features {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&features[i]).Error; err != nil {
			log.Fatal("seed features: ", err)
		}
	}

	overrides := []plan.PlanFeature{
		{
			PlanID:      plan.PlanPlus,
			FeatureCode: plan.FeatureStorage,
			Metadata: plan.Metadata{
				plan.KeyMaxStorageMB:  100_000,
				plan.KeyMaxFileSizeMB: 2_000,
			},
		},
		{
			PlanID:      plan.PlanPlus,
			FeatureCode: plan.FeatureShareLinks,
			Metadata: plan.Metadata{
				plan.KeyMaxActiveLinks:          50,
				plan.KeyMaxExpirationDays:       30,
				plan.KeyCustomExpirationAllowed: true,
				plan.KeyPasswordAllowed:         true,
			},
		},
		{
			PlanID:      plan.PlanPlus,
			FeatureCode: plan.FeatureFolders,
			Metadata:    plan.Metadata{plan.KeyFoldersEnabled: true},
		},
		{
			PlanID:      plan.PlanBusiness,
			FeatureCode: plan.FeatureStorage,
			Metadata: plan.Metadata{
				// Explicit null beats the default: nil limit means unlimited.
				plan.KeyMaxStorageMB:  nil,
				plan.KeyMaxFileSizeMB: 10_000,
			},
		},
		{
			PlanID:      plan.PlanBusiness,
			FeatureCode: plan.FeatureShareLinks,
			Metadata: plan.Metadata{
				plan.KeyMaxActiveLinks:          nil,
				plan.KeyMaxExpirationDays:       365,
				plan.KeyCustomExpirationAllowed: true,
				plan.KeyPasswordAllowed:         true,
				plan.KeyFolderSharingAllowed:    true,
			},
		},
		{
			PlanID:      plan.PlanBusiness,
			FeatureCode: plan.FeatureFolders,
			Metadata:    plan.Metadata{plan.KeyFoldersEnabled: true},
		},
	}
	for i := range overrides {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&overrides[i]).Error; err != nil {
			log.Fatal("seed plan features: ", err)
		}
	}

	log.Println("Seed complete")
}
