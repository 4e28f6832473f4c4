package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Catalog  CatalogConfig
	Clicks   ClickConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds the secret used to verify admin bearer tokens. Tokens are
// issued by an external identity provider.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// CatalogConfig bounds the product listing pipeline
type CatalogConfig struct {
	PageSize        int
	WindowSize      int
	MaxRows         int
	RequestTimeout  time.Duration
	BulkChunkSize   int
	BulkConcurrency int
	CacheTTL        time.Duration
}

type ClickConfig struct {
	RateLimit         int
	RateWindow        time.Duration
	ReconcileInterval time.Duration
	RecordTimeout     time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_ENABLED", true)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("CATALOG_PAGE_SIZE", 20)
	viper.SetDefault("CATALOG_WINDOW_SIZE", 1000)
	viper.SetDefault("CATALOG_MAX_ROWS", 10000)
	viper.SetDefault("CATALOG_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("CATALOG_BULK_CHUNK_SIZE", 50)
	viper.SetDefault("CATALOG_BULK_CONCURRENCY", 5)
	viper.SetDefault("CATALOG_CACHE_TTL", "5m")
	viper.SetDefault("CLICK_RATE_LIMIT", 60)
	viper.SetDefault("CLICK_RATE_WINDOW", "1m")
	viper.SetDefault("CLICK_RECONCILE_INTERVAL", "15m")
	viper.SetDefault("CLICK_RECORD_TIMEOUT", "5s")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:     viper.GetString("SERVER_PORT"),
			Env:      viper.GetString("SERVER_ENV"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Catalog: CatalogConfig{
			PageSize:        viper.GetInt("CATALOG_PAGE_SIZE"),
			WindowSize:      viper.GetInt("CATALOG_WINDOW_SIZE"),
			MaxRows:         viper.GetInt("CATALOG_MAX_ROWS"),
			RequestTimeout:  viper.GetDuration("CATALOG_REQUEST_TIMEOUT"),
			BulkChunkSize:   viper.GetInt("CATALOG_BULK_CHUNK_SIZE"),
			BulkConcurrency: viper.GetInt("CATALOG_BULK_CONCURRENCY"),
			CacheTTL:        viper.GetDuration("CATALOG_CACHE_TTL"),
		},
		Clicks: ClickConfig{
			RateLimit:         viper.GetInt("CLICK_RATE_LIMIT"),
			RateWindow:        viper.GetDuration("CLICK_RATE_WINDOW"),
			ReconcileInterval: viper.GetDuration("CLICK_RECONCILE_INTERVAL"),
			RecordTimeout:     viper.GetDuration("CLICK_RECORD_TIMEOUT"),
		},
	}
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
