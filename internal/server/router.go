package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/devpulse/devpulse-backend/internal/handlers"
	"github.com/devpulse/devpulse-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName           string
	AllowOrigins          []string
	AuthHandler           *handlers.AuthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	UserHandler           *handlers.UserHandler
	ContentHandler        *handlers.ContentHandler
	RecommendationHandler *handlers.RecommendationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", handlers.SessionHeader},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")

	// Public
	api.POST("/register", cfg.AuthHandler.Register)
	api.POST("/login", cfg.AuthHandler.Login)
	api.POST("/refresh", cfg.AuthHandler.Refresh)
	api.GET("/content", cfg.ContentHandler.ListPublished)
	api.GET("/content/:slug", cfg.ContentHandler.GetBySlug)
	api.GET("/recommendations/trending", cfg.RecommendationHandler.Trending)
	api.GET("/recommendations/similar/:id", cfg.RecommendationHandler.Similar)

	// Anonymous sessions may record interactions; authenticated users get
	// their identity attached when a token is present.
	api.POST("/interactions", cfg.AuthMiddleware.WithIdentity(), cfg.RecommendationHandler.RecordInteraction)

	// Protected
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.GET("/recommendations/feed", cfg.RecommendationHandler.Feed)
	protected.GET("/recommendations/personalized", cfg.RecommendationHandler.Personalized)
	protected.POST("/content/:id/publish", cfg.ContentHandler.Publish)
	protected.POST("/content/:id/archive", cfg.ContentHandler.Archive)

	return router
}
