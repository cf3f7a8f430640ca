package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-scanner/internal/api"
	"recipe-scanner/internal/core/cache"
	recipeService "recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("configuration loaded",
		zap.Strings("models", cfg.OpenRouter.Models),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("env", cfg.App.Env),
	)

	extractionCache := buildCache(cfg)
	if extractionCache != nil {
		defer extractionCache.Close()
	}

	if cfg.Database.URL == "" {
		common.LogFatal("DATABASE_URL is required")
	}
	store, err := recipeService.NewPostgresStore(cfg.Database.URL)
	if err != nil {
		common.LogFatal("failed to initialize recipe store", zap.Error(err))
	}
	defer store.Close()

	router, err := api.SetupRouter(cfg, extractionCache, store)
	if err != nil {
		common.LogError("failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("starting server",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("server exited")
}

// buildCache picks the extraction cache backend. Redis is used when an
// address is configured; a connection failure falls back to the in-memory
// cache rather than blocking startup.
func buildCache(cfg *config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}

	if cfg.Cache.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err == nil {
			common.LogInfo("using redis extraction cache", zap.String("addr", cfg.Cache.RedisAddr))
			return redisCache
		}
		common.LogError("redis unavailable, falling back to in-memory cache",
			zap.Error(err),
			zap.String("addr", cfg.Cache.RedisAddr))
	}

	common.LogInfo("using in-memory extraction cache",
		zap.Int("max_size", cfg.Cache.MaxSize),
		zap.Duration("ttl", cfg.Cache.TTL))
	return cache.NewMemoryCache(cfg.Cache.MaxSize, cfg.Cache.TTL, cfg.Cache.CleanupInterval)
}
