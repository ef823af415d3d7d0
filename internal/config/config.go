package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	// Host is the public base URL used when building links sent to users.
	Host string

	TokenTTL             time.Duration
	PasswordResetTimeout time.Duration
	CORSAllowedOrigins   []string

	DB      DatabaseConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Search  SearchConfig
	Mail    MailConfig
	Storage StorageConfig
	Worker  WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CacheConfig controls how long listing responses stay cached.
type CacheConfig struct {
	ProductsTTL        time.Duration
	AttributeValuesTTL time.Duration
}

// SearchConfig points at the Elasticsearch cluster backing free-text product search.
// Search is disabled when URLs is empty.
type SearchConfig struct {
	URLs       []string
	Index      string
	Username   string
	Password   string
	MaxResults int
}

// MailConfig contains SendGrid credentials and sender identity.
type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	QueueSize      int
}

// StorageConfig contains S3 settings for product images.
type StorageConfig struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string

	// AllowUnconfigured skips uploads instead of failing when credentials
	// are missing. Only set in development.
	AllowUnconfigured bool
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	SearchSyncInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	// Missing .env is fine, production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Host = strings.TrimRight(getEnv("HOST", "http://localhost:8080"), "/")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", "*")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Elasticsearch
	cfg.Search = SearchConfig{
		URLs:       getEnvList("SEARCH_URLS", ""),
		Index:      getEnv("SEARCH_INDEX", "product"),
		Username:   getEnv("SEARCH_USERNAME", ""),
		Password:   getEnv("SEARCH_PASSWORD", ""),
		MaxResults: getEnvInt("SEARCH_MAX_RESULTS", 1000),
	}

	// SendGrid
	cfg.Mail = MailConfig{
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("MAIL_FROM_EMAIL", "no-reply@localhost"),
		FromName:       getEnv("MAIL_FROM_NAME", "GTD Shop"),
		QueueSize:      getEnvInt("MAIL_QUEUE_SIZE", 100),
	}

	// S3 (product images)
	cfg.Storage = StorageConfig{
		Region:          getEnv("S3_REGION", "ap-southeast-3"),
		Bucket:          getEnv("S3_BUCKET", "gtd-shop-media"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicURL:       strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		AllowUnconfigured: cfg.Env == "development",
	}

	var err error
	if cfg.TokenTTL, err = parseDurationEnv("TOKEN_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.PasswordResetTimeout, err = parseDurationEnv("PASSWORD_RESET_TIMEOUT", "72h"); err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_RESET_TIMEOUT: %w", err)
	}
	if cfg.Cache.ProductsTTL, err = parseDurationEnv("PRODUCTS_CACHE_TTL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid PRODUCTS_CACHE_TTL: %w", err)
	}
	if cfg.Cache.AttributeValuesTTL, err = parseDurationEnv("ATTRIBUTE_VALUES_CACHE_TTL", "60m"); err != nil {
		return nil, fmt.Errorf("invalid ATTRIBUTE_VALUES_CACHE_TTL: %w", err)
	}
	if cfg.Worker.SearchSyncInterval, err = parseDurationEnv("SEARCH_SYNC_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid SEARCH_SYNC_INTERVAL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	if cfg.Mail.QueueSize <= 0 {
		return nil, errors.New("MAIL_QUEUE_SIZE must be positive")
	}

	return cfg, nil
}

// SearchEnabled reports whether an Elasticsearch cluster is configured.
func (c *Config) SearchEnabled() bool {
	return len(c.Search.URLs) > 0
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key, def string) []string {
	raw := getEnv(key, def)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
