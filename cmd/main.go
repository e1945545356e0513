package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/devpulse/devpulse-backend/internal/cache"
	"github.com/devpulse/devpulse-backend/internal/db"
	"github.com/devpulse/devpulse-backend/internal/handlers"
	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/middleware"
	"github.com/devpulse/devpulse-backend/internal/observability"
	"github.com/devpulse/devpulse-backend/internal/repos"
	"github.com/devpulse/devpulse-backend/internal/server"
	"github.com/devpulse/devpulse-backend/internal/services"
	"github.com/devpulse/devpulse-backend/internal/utils"
)

func main() {
	// Logger
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

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	candidatePool := utils.GetEnvAsInt("RECO_CANDIDATE_POOL", 100, log)
	cacheTTLHours := utils.GetEnvAsInt("INTERACTION_CACHE_TTL_HOURS", 24, log)
	cacheMaxPerKey := utils.GetEnvAsInt("INTERACTION_CACHE_MAX_PER_KEY", 500, log)

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "devpulse-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Postgres
	log.Info("Setting up Postgres from main...")
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	contentItemRepo := repos.NewContentItemRepo(thePG, log)
	interactionRepo := repos.NewInteractionRepo(thePG, log)

	// Interaction cache: Redis when configured, bounded in-memory otherwise.
	log.Info("Setting up interaction cache from main...")
	cacheTTL := time.Duration(cacheTTLHours) * time.Hour
	var interactions cache.RecentInteractions
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		redisCache, err := cache.NewRedisInteractions(log, cacheTTL, cacheMaxPerKey)
		if err != nil {
			log.Error("Could not init Redis interaction cache", "error", err)
			os.Exit(1)
		}
		interactions = redisCache
	} else {
		log.Warn("REDIS_ADDR not set, using in-memory interaction cache")
		interactions = cache.NewMemoryInteractions(cacheTTL, cacheMaxPerKey)
	}
	defer interactions.Close()

	// Services
	log.Info("Setting up services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	contentService := services.NewContentService(thePG, log, contentItemRepo)
	profileService := services.NewProfileService(thePG, log, interactionRepo, interactions)
	recommendationService := services.NewRecommendationService(thePG, log, contentItemRepo, interactionRepo, interactions, profileService, candidatePool)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	contentHandler := handlers.NewContentHandler(log, contentService)
	recommendationHandler := handlers.NewRecommendationHandler(log, recommendationService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:           "devpulse-backend",
		AuthHandler:           authHandler,
		AuthMiddleware:        authMiddleware,
		UserHandler:           userHandler,
		ContentHandler:        contentHandler,
		RecommendationHandler: recommendationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
