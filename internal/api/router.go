// Package api wires middleware, handlers and services into the HTTP router.
package api

import (
	"context"
	"net/http"
	"time"

	"recipe-scanner/internal/api/handlers/health"
	recipeHandler "recipe-scanner/internal/api/handlers/recipe"
	scanHandler "recipe-scanner/internal/api/handlers/scan"
	"recipe-scanner/internal/api/middleware"
	"recipe-scanner/internal/core/ai"
	"recipe-scanner/internal/core/cache"
	"recipe-scanner/internal/core/extract"
	"recipe-scanner/internal/core/media"
	recipeService "recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// Extraction calls dominate request latency, so the per-request budget
	// covers two model attempts plus the nutrition sub-call.
	timeoutDuration = 180 * time.Second

	previewMaxWidth = 800
	previewQuality  = 85
)

// SetupRouter builds the gin engine with all routes and middleware.
func SetupRouter(cfg *config.Config, extractionCache cache.Cache, store recipeService.Store) (*gin.Engine, error) {
	common.LogInfo("starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Upload.MaxSizeBytes))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg.DedupWindow))

	// Per-request timeout.
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
		}
	})

	provider := ai.NewOpenRouterClient(cfg.OpenRouter)
	extractSvc := extract.NewService(provider, cfg.Extract)
	mediaProc := media.NewProcessor(previewMaxWidth, previewQuality)
	recipeSvc := recipeService.NewService(store)

	common.LogInfo("services initialized",
		zap.Bool("cache_enabled", extractionCache != nil),
		zap.Strings("models", cfg.OpenRouter.Models),
		zap.Duration("timeout", timeoutDuration),
	)

	router.GET("/health", health.Check(cfg))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.UserAuth())
	{
		scanH := scanHandler.NewHandler(extractSvc, extractionCache, mediaProc)
		recipeH := recipeHandler.NewHandler(recipeSvc)

		recipes := v1.Group("/recipes")
		{
			recipes.POST("/scan", scanH.Scan)

			recipes.POST("", recipeH.Create)
			recipes.GET("", recipeH.List)
			recipes.GET("/:id", recipeH.Get)
			recipes.PATCH("/:id", recipeH.Update)
			recipes.DELETE("/:id", recipeH.Delete)
		}
	}

	common.LogInfo("router setup completed",
		zap.String("version", cfg.App.Version),
		zap.Int64("max_body_size", cfg.Upload.MaxSizeBytes),
	)

	return router, nil
}
