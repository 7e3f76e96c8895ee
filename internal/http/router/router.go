package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cemas.ai/backend/core/config"
	"cemas.ai/backend/internal/events"
	"cemas.ai/backend/internal/http/handler"
	"cemas.ai/backend/internal/http/middleware"
	"cemas.ai/backend/internal/service"
)

type RouterConfig struct {
	App          config.AppConfig
	DashboardURL string
	IsProduction bool
	AdminAPIKey  string
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
	// EventReader backs the SSE endpoint; nil makes it answer 503.
	EventReader events.Reader
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        cfg.App.Name,
			"version":     cfg.App.Version,
			"description": cfg.App.Description,
			"status":      "running",
		})
	})

	if cfg.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	requireSession := middleware.RequireSession(services.Auth(), cfg.IsProduction)

	authHandler := handler.NewAuthHandler(services.Auth(), cfg.DashboardURL, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler, requireSession)

	v1 := router.Group("/api/v1")
	{
		userHandler := handler.NewUserHandler(services.Users())
		UserRouter(v1.Group("/users", middleware.RequireAdminAPIKey(cfg.AdminAPIKey)), userHandler)

		ConversationRouter(
			v1.Group("/conversations", requireSession),
			handler.NewConversationHandler(services.Conversations()),
			handler.NewMessageHandler(services.Chat()),
			handler.NewEventsHandler(services.Conversations(), cfg.EventReader, 0),
		)

		SchemaRouter(v1.Group("/schemas"), handler.NewSchemaHandler())
	}
}
