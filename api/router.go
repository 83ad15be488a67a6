package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/serpcrawl/api/handler"
	"github.com/use-agent/serpcrawl/api/middleware"
	"github.com/use-agent/serpcrawl/cache"
	"github.com/use-agent/serpcrawl/config"
	"github.com/use-agent/serpcrawl/models"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Search:  Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(s handler.Searcher, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.SearchResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: "method not allowed",
			},
		})
	})

	// Health — no auth required.
	r.GET("/api/v1/health", handler.Health(cfg.Crawl.Mode, startTime))

	// Search — the original form posts and plain GET clients both work.
	search := r.Group("/api")
	if cfg.Auth.Enabled {
		search.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	search.Use(middleware.RateLimit(cfg.RateLimit))

	searchHandler := handler.Search(s, cfg.Crawl, cfg.Cache, cc)
	search.GET("/search", searchHandler)
	search.POST("/search", searchHandler)

	return r
}
