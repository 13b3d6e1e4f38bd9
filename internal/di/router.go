package di

import (
	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/devops-api/internal/domain"
	"github.com/prohmpiriya/devops-api/internal/middleware"
	"github.com/prohmpiriya/devops-api/pkg/telemetry"
)

// NewRouter builds the gin engine with global middleware and all routes
func NewRouter(c *Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if c.Config.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(c.Config.OTel.ServiceName))
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(c.Logger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestMetrics(c.Aggregator, c.Config.Metrics.CountServerErrors))

	// Health check endpoints
	router.GET("/health", c.HealthHandler.Health)
	router.GET("/ready", c.HealthHandler.Ready)

	api := router.Group("/api")
	{
		api.GET("/status", c.HealthHandler.Status)
		api.GET("/info", c.HealthHandler.Info)

		authGroup := api.Group("/auth")
		{
			login := []gin.HandlerFunc{}
			if c.Limiter != nil {
				login = append(login, middleware.RateLimit(c.Limiter, c.RateLimitConfig, c.Logger))
			}
			login = append(login, c.AuthHandler.Login)
			authGroup.POST("/login", login...)

			protected := authGroup.Group("")
			protected.Use(middleware.Authenticate(c.AuthService, c.Logger))
			{
				protected.GET("/profile", c.AuthHandler.Profile)
				protected.POST("/logout", c.AuthHandler.Logout)
				protected.GET("/admin", middleware.RequireRole(domain.RoleAdmin), c.AuthHandler.Admin)
			}
		}

		metricsGroup := api.Group("/metrics")
		{
			metricsGroup.GET("", c.MetricsHandler.Get)
			metricsGroup.POST("/reset", c.MetricsHandler.Reset)
		}
	}

	router.NoRoute(c.HealthHandler.NotFound)

	return router
}
