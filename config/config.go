package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// DatabaseURL is a postgres URL or a sqlite file path ("file:" DSNs and
	// ":memory:" included).
	DatabaseURL string

	// Redis configuration. An empty URL disables redis and the rate limiter
	// falls back to process memory.
	RedisURL      string
	RedisPassword string

	// JWT configuration
	JWTSecret string

	// Image storage. With no bucket configured images go to MediaDir and are
	// served under MediaURL.
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string
	MediaDir    string
	MediaURL    string

	// Recipe write rate limit: RateLimit requests per RateWindow per user.
	RateLimit  int
	RateWindow time.Duration

	PageSize int
}

// LoadConfig builds a Config from the environment. Development and test
// read a .env file first when one exists; production reads sensitive values
// from Docker secrets.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	switch env {
	case Development, Test:
		if err := godotenv.Load(envFile()); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		loadFromEnv(cfg)
	case CI:
		loadFromEnv(cfg)
	case Production:
		loadFromEnv(cfg)
		loadSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// UsesS3 reports whether images go to an S3 bucket.
func (c *Config) UsesS3() bool {
	return c.S3Bucket != ""
}

func envFile() string {
	if path := os.Getenv("ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

func loadFromEnv(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))
	cfg.DatabaseURL = getEnv("DATABASE_URL", "foodgram.db")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Region = getEnv("AWS_REGION", "us-east-1")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3PublicURL = os.Getenv("S3_PUBLIC_URL")
	cfg.MediaDir = getEnv("MEDIA_DIR", "media")
	cfg.MediaURL = getEnv("MEDIA_URL", "/media")
	cfg.RateLimit = getEnvInt("RATE_LIMIT", 30)
	cfg.RateWindow = getEnvDuration("RATE_WINDOW", time.Minute)
	cfg.PageSize = getEnvInt("PAGE_SIZE", 6)
}

// loadSecrets overrides sensitive values with Docker secrets when present.
func loadSecrets(cfg *Config) {
	if v := readSecret("database_url"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := readSecret("jwt_secret"); v != "" {
		cfg.JWTSecret = v
	}
	if v := readSecret("redis_url"); v != "" {
		cfg.RedisURL = v
	}
	if v := readSecret("redis_password"); v != "" {
		cfg.RedisPassword = v
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
