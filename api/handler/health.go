package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/serpcrawl/config"
	"github.com/use-agent/serpcrawl/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports "degraded" under the restricted execution mode: the service
// is up but every crawl will return synthetic results.
func Health(mode config.ExecutionMode, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if mode == config.ModeRestricted {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Mode:    string(mode),
			Version: "0.1.0",
		})
	}
}
