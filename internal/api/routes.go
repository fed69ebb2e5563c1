package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/article-analytics/internal/config"
	"github.com/jonesrussell/article-analytics/internal/handler"
	"github.com/jonesrussell/article-analytics/internal/middleware"
	"github.com/jonesrussell/article-analytics/internal/telemetry"
)

// SetupRoutes configures all API routes.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	analysisHandler *handler.AnalysisHandler,
	articleHandler *handler.ArticleHandler,
	healthHandler *handler.HealthHandler,
	metrics *telemetry.Metrics,
	done <-chan struct{},
) {
	// Health and metrics
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/health/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Article ingest
	router.PUT("/api/v1/articles/:id", articleHandler.HandleUpsert)

	// Analysis endpoints with per-IP rate limiting
	rateLimitWindow := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	analysis := router.Group("/api/v1/analysis")
	analysis.Use(middleware.RateLimiter(cfg.RateLimit.MaxRequestsPerMinute, rateLimitWindow, done))
	analysis.POST("/causal", analysisHandler.HandleCausal)
	analysis.POST("/regression", analysisHandler.HandleRegression)
	analysis.POST("/clusters", analysisHandler.HandleClusters)
	analysis.POST("/timeseries", analysisHandler.HandleTimeSeries)
	analysis.POST("/report", analysisHandler.HandleReport)
}
