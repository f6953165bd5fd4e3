package http

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tumbuh/backend/config"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/validation"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// request structs carry validate tags checked by the shared validator
	binding.Validator = validation.GinValidator{}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logging.Component("http")))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		regions := v1.Group("/regions")
		{
			regions.GET("/provinces", handler.ListProvinces)
			regions.GET("/provinces/:province/districts", handler.ListDistricts)
			regions.GET("/provinces/:province/districts/:district/commodities", handler.ListCommodities)
		}

		v1.POST("/recommendations", handler.Recommend)
		v1.POST("/advisories", handler.Advise)

		feedback := v1.Group("/feedback")
		{
			feedback.POST("", handler.SubmitFeedback)
			feedback.GET("", handler.ListFeedback)
		}
	}

	return router
}
