package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/config"
	"github.com/gcbaptista/go-lostfound/internal/metrics"
	"github.com/gcbaptista/go-lostfound/services"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Records  services.RecordService
	Matcher  services.Matcher
	Notifier services.Notifier
	Settings config.MatcherSettings
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	// MaxBodyBytes caps request bodies; 0 disables the limit.
	MaxBodyBytes int64
}

// API holds dependencies for API handlers.
type API struct {
	records  services.RecordService
	matcher  services.Matcher
	notifier services.Notifier
	settings config.MatcherSettings
	metrics  *metrics.Metrics
}

// NewAPI creates a new API handler structure.
func NewAPI(deps Dependencies) *API {
	settings := deps.Settings
	settings.ApplyDefaults()
	return &API{
		records:  deps.Records,
		matcher:  deps.Matcher,
		notifier: deps.Notifier,
		settings: settings,
		metrics:  deps.Metrics,
	}
}

// NewRouter builds a gin engine with the standard middleware chain and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(deps.Logger))
	router.Use(MetricsMiddleware(deps.Metrics))
	router.Use(CORSMiddleware())
	if deps.MaxBodyBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(deps.MaxBodyBytes))
	}
	SetupRoutes(router, deps)
	return router
}

// SetupRoutes defines all the API routes for the lost & found service.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	apiHandler := NewAPI(deps)

	// Health check and metrics routes
	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(apiHandler.metrics.Handler()))

	// Record routes
	itemRoutes := router.Group("/items")
	{
		itemRoutes.POST("", apiHandler.CreateItemHandler)                          // Submit a record and get its first matches
		itemRoutes.GET("", apiHandler.ListItemsHandler)                            // List records, optionally by type and text
		itemRoutes.GET("/:itemId", apiHandler.GetItemHandler)                      // Get a specific record
		itemRoutes.DELETE("/:itemId", apiHandler.DeleteItemHandler)                // Delete a record
		itemRoutes.GET("/:itemId/matches", apiHandler.GetMatchesHandler)           // Ranked matches of the opposite type
		itemRoutes.GET("/:itemId/report", apiHandler.GetReportHandler)             // Plain-text match report
		itemRoutes.POST("/:itemId/notify/:matchId", apiHandler.NotifyMatchHandler) // Tell a match's owner about the record
	}

	// Dashboard route
	router.GET("/dashboard", apiHandler.DashboardHandler)
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-lostfound",
		"strategy":  api.matcher.StrategyName(),
		"timestamp": time.Now().Unix(),
	})
}
