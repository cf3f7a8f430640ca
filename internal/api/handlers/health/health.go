// Package health exposes the liveness endpoint.
package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-scanner/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

// Response is the health check payload.
type Response struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// Check returns the health handler.
func Check(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, Response{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   cfg.App.Version,
			Runtime: map[string]interface{}{
				"go_version":  runtime.Version(),
				"goroutines":  runtime.NumGoroutine(),
				"alloc_bytes": m.Alloc,
			},
		})
	}
}
