package main

import (
	"context"
	"fmt"
	"os"

	"github.com/devpulse/devpulse-backend/internal/db"
	"github.com/devpulse/devpulse-backend/internal/ingest"
	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/repos"
	"github.com/devpulse/devpulse-backend/internal/services"
	"github.com/devpulse/devpulse-backend/internal/utils"
)

// One-shot feed ingestion, intended to run from cron. Fetches every feed in
// the YAML list, scores new entries and stores them as drafts.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	feedsPath := utils.GetEnv("FEEDS_FILE", "feeds.yaml", log)
	feeds, err := ingest.LoadFeeds(feedsPath)
	if err != nil {
		log.Error("Could not load feeds config", "path", feedsPath, "error", err)
		os.Exit(1)
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}

	contentItemRepo := repos.NewContentItemRepo(postgresService.DB(), log)
	scoringService := services.NewScoringService(log)
	ingestService := ingest.NewService(log, contentItemRepo, scoringService)

	stored, err := ingestService.Run(context.Background(), feeds)
	if err != nil {
		log.Error("Ingestion run failed", "error", err)
		os.Exit(1)
	}

	rescoreLimit := utils.GetEnvAsInt("RESCORE_LIMIT", 500, log)
	rescored, err := ingestService.Rescore(context.Background(), rescoreLimit)
	if err != nil {
		log.Warn("Score refresh failed", "error", err)
	}
	log.Info("Ingestion complete", "feeds", len(feeds), "stored", stored, "rescored", rescored)
}
