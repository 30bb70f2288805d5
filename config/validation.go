package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks every requirement and reports all failures at once.
func ValidateConfig(cfg *Config) error {
	var errs []error

	if cfg.DatabaseURL == "" {
		errs = append(errs, ValidationError{Field: "DATABASE_URL", Message: "is required"})
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{Field: "JWT_SECRET", Message: "is required"})
	}
	if cfg.Environment == Production {
		if len(cfg.JWTSecret) < 32 {
			errs = append(errs, ValidationError{Field: "JWT_SECRET", Message: "must be at least 32 characters in production"})
		}
		if IsSQLite(cfg.DatabaseURL) {
			errs = append(errs, ValidationError{Field: "DATABASE_URL", Message: "sqlite is not supported in production"})
		}
	}
	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{Field: "SERVER_PORT", Message: "is required"})
	}
	if cfg.RateLimit < 1 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT", Message: "must be positive"})
	}
	if cfg.RateWindow <= 0 {
		errs = append(errs, ValidationError{Field: "RATE_WINDOW", Message: "must be positive"})
	}
	if cfg.PageSize < 1 {
		errs = append(errs, ValidationError{Field: "PAGE_SIZE", Message: "must be positive"})
	}
	if cfg.S3Endpoint != "" && cfg.S3Bucket == "" {
		errs = append(errs, ValidationError{Field: "S3_BUCKET_NAME", Message: "is required when S3_ENDPOINT is set"})
	}

	return errors.Join(errs...)
}

// IsSQLite reports whether dsn addresses a sqlite database rather than
// postgres.
func IsSQLite(dsn string) bool {
	return !strings.HasPrefix(dsn, "postgres://") &&
		!strings.HasPrefix(dsn, "postgresql://") &&
		!strings.Contains(dsn, "host=")
}
