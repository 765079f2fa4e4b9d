package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"cloudvault/internal/database"
	"cloudvault/internal/domain/file"
	"cloudvault/internal/domain/folder"
	"cloudvault/internal/domain/plan"
)

// Periodic sweeps, intended to run from cron: fail pending uploads that were
// never finalized, expire overdue subscriptions, and drain the path rebuild
// queue.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	pendingTTL := envDuration("PENDING_UPLOAD_TTL", 24*time.Hour)
	rebuildLimit := envInt("REBUILD_SWEEP_LIMIT", 100)

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx := context.Background()

	fileRepo := file.NewRepository(db)
	planService := plan.NewService(plan.NewRepository(db))
	folderService := folder.NewService(folder.NewRepository(db), fileRepo, planService, 200)

	expired, err := fileRepo.ExpireStalePending(ctx, time.Now().Add(-pendingTTL))
	if err != nil {
		log.Fatalf("expire stale pending failed: %v", err)
	}

	subs, err := planService.ExpireOldSubscriptions(ctx)
	if err != nil {
		log.Fatalf("expire subscriptions failed: %v", err)
	}

	rebuilt, err := folderService.ProcessPendingRebuilds(ctx, rebuildLimit)
	if err != nil {
		log.Fatalf("process path rebuilds failed: %v", err)
	}

	log.Printf("maintenance completed: pending_expired=%d subscriptions_expired=%d rebuilds_processed=%d",
		expired, subs, rebuilt)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("%s: invalid duration %q", key, raw)
	}
	return d
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Fatalf("%s: invalid integer %q", key, raw)
	}
	return n
}
