package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Singh4599/techno-sapiens/internal/config"
	"github.com/Singh4599/techno-sapiens/internal/handler/middleware"
	jwtpkg "github.com/Singh4599/techno-sapiens/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	authHandler *AuthHandler,
	eventHandler *EventHandler,
	registrationHandler *RegistrationHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/signup", authHandler.SignUp)
		auth.POST("/login", authHandler.Login)
	}

	// Public event browsing and capacity
	events := r.Group("/api/v1/events")
	{
		events.GET("", eventHandler.List)
		events.GET("/:slug", eventHandler.GetBySlug)
		events.GET("/:slug/capacity", eventHandler.Capacity)
		events.GET("/:slug/capacity/stream", eventHandler.StreamCapacity)
	}

	// Registration requires the identity gate
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/events/:slug/register", registrationHandler.Register)
		protected.GET("/registrations", registrationHandler.MyRegistrations)
	}

	// Admin routes (JWT + role claim)
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(jwtManager))
	admin.Use(middleware.AdminOnly())
	{
		admin.GET("/events", adminHandler.ListEvents)
		admin.POST("/events", adminHandler.CreateEvent)
		admin.PUT("/events/:id", adminHandler.UpdateEvent)
		admin.DELETE("/events/:id", adminHandler.DeleteEvent)
		admin.GET("/events/:id/registrations", adminHandler.ListEventRegistrations)

		admin.PATCH("/registrations/:id/status", adminHandler.UpdateRegistrationStatus)
		admin.PATCH("/registrations/:id/payment", adminHandler.UpdateRegistrationPayment)
		admin.DELETE("/registrations/:id", adminHandler.DeleteRegistration)
	}

	return r
}
