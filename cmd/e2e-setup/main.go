package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"commit-reflections/internal/config"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/infra/db/postgres"
	"commit-reflections/internal/infra/redis"
)

// This script sets up a clean, predictable database state for manual
// end-to-end testing: wipes Redis and the tables, then seeds a few repos.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/3] Wiping Redis...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[2/3] Wiping all existing database data...")
	_, err = pool.Exec(ctx, `
		TRUNCATE tracked_repos, reflection_jobs, reflections
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("[3/3] Seeding tracked repos...")
	seedRepos(ctx, pool)

	log.Println("--- E2E Environment Setup Complete ---")
}

func seedRepos(ctx context.Context, pool *pgxpool.Pool) {
	repos := postgres.NewTrackedRepoRepo(pool, nil)
	trialEnd := time.Now().AddDate(0, 0, 14)

	active := &model.TrackedRepo{
		ID:          uuid.NewString(),
		FullName:    "acme/widgets",
		OwnerName:   "Sam",
		OwnerEmail:  "sam@example.com",
		Timezone:    "America/New_York",
		Status:      model.SubscriptionActive,
		AccessToken: "ghp_test_token",
		CreatedAt:   time.Now(),
	}
	if err := repos.Save(ctx, nil, active); err != nil {
		log.Printf("failed to save active repo: %v", err)
	}

	trial := &model.TrackedRepo{
		ID:          uuid.NewString(),
		FullName:    "acme/prototype",
		OwnerName:   "Robin",
		OwnerEmail:  "robin@example.com",
		Timezone:    "Europe/Berlin",
		Status:      model.SubscriptionTrial,
		TrialEndsAt: &trialEnd,
		AccessToken: "ghp_test_token_2",
		CreatedAt:   time.Now(),
	}
	if err := repos.Save(ctx, nil, trial); err != nil {
		log.Printf("failed to save trial repo: %v", err)
	}

	cancelled := &model.TrackedRepo{
		ID:         uuid.NewString(),
		FullName:   "acme/abandoned",
		OwnerName:  "Alex",
		OwnerEmail: "alex@example.com",
		Timezone:   "UTC",
		Status:     model.SubscriptionCancelled,
		CreatedAt:  time.Now(),
	}
	if err := repos.Save(ctx, nil, cancelled); err != nil {
		log.Printf("failed to save cancelled repo: %v", err)
	}
}
