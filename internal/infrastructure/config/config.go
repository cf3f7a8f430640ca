package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Extract     ExtractConfig    `mapstructure:"extract"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Database    DatabaseConfig   `mapstructure:"database"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Upload      UploadConfig     `mapstructure:"upload"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig holds inference provider settings. Models is an ordered
// fallback chain: the first entry is preferred, later entries are tried only
// when the provider reports the model as unknown.
type OpenRouterConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Models    []string      `mapstructure:"models"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ExtractConfig holds extraction pipeline settings.
type ExtractConfig struct {
	MaxAttempts     int `mapstructure:"max_attempts"`
	DefaultServings int `mapstructure:"default_servings"`
}

// CacheConfig holds extraction cache settings. When RedisAddr is empty the
// in-memory cache is used.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RateLimitConfig holds request rate limit settings.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig reads configuration from .env and environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine in production; env vars take over.
		fmt.Println("Warning: .env file not found")
	}

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.models", "OPENROUTER_MODELS")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Logger is not initialized yet.
	fmt.Println("Loading configuration",
		"openrouter_api_key:", maskAPIKey(viper.GetString("openrouter.api_key")),
		"openrouter_models:", viper.GetStringSlice("openrouter.models"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// OPENROUTER_MODELS may arrive as one comma-separated string.
	if len(config.OpenRouter.Models) == 1 && strings.Contains(config.OpenRouter.Models[0], ",") {
		parts := strings.Split(config.OpenRouter.Models[0], ",")
		config.OpenRouter.Models = config.OpenRouter.Models[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				config.OpenRouter.Models = append(config.OpenRouter.Models, p)
			}
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey shows only the first and last 4 characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-scanner")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("openrouter.models", []string{
		"google/gemini-2.0-flash-001",
		"google/gemini-flash-1.5",
		"qwen/qwen2.5-vl-72b-instruct",
	})
	viper.SetDefault("openrouter.max_tokens", 4096)
	viper.SetDefault("openrouter.timeout", "60s")

	viper.SetDefault("extract.max_attempts", 2)
	viper.SetDefault("extract.default_servings", 4)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.redis_addr", "")
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "0")
	viper.SetDefault("cache.cleanup_interval", "10m")

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	viper.SetDefault("upload.max_size_bytes", 15*1024*1024) // 15MB

	viper.SetDefault("dedup_window", "1s")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if len(config.OpenRouter.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.Extract.MaxAttempts <= 0 {
		return fmt.Errorf("invalid extract max attempts")
	}

	return nil
}
