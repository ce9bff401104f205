package config

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the loaded values, collecting every problem rather than stopping at the first
func ValidateConfig(cfg *Config) error {
	var errs []error
	fail := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		fail("SERVER_PORT", "must be a port number, got %q", cfg.ServerPort)
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DBHost == "" {
			fail("DB_HOST", "is required for the postgres driver")
		}
		if cfg.DBName == "" {
			fail("DB_NAME", "is required for the postgres driver")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			fail("SQLITE_PATH", "is required for the sqlite driver")
		}
	default:
		fail("DB_DRIVER", "must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.DBDriver)
	}

	switch cfg.ImageStorage {
	case StorageLocal:
		if cfg.MediaRoot == "" {
			fail("MEDIA_ROOT", "is required for local image storage")
		}
	case StorageS3:
		if cfg.S3Bucket == "" {
			fail("S3_BUCKET_NAME", "is required for s3 image storage")
		}
	default:
		fail("IMAGE_STORAGE", "must be %q or %q, got %q", StorageLocal, StorageS3, cfg.ImageStorage)
	}

	if cfg.JWTSecret == "" {
		fail("jwt_secret", "secret is required")
	}
	if cfg.JWTTTL <= 0 {
		fail("JWT_TTL", "must be positive")
	}
	if cfg.PageSize <= 0 {
		fail("PAGE_SIZE", "must be positive")
	}
	if cfg.RateLimit < 0 {
		fail("RATE_LIMIT", "must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateLimitWindow <= 0 {
		fail("RATE_LIMIT_WINDOW", "must be positive when rate limiting is enabled")
	}

	if cfg.Environment == Production {
		if cfg.DBDriver == DriverPostgres && cfg.DBPassword == "" {
			fail("db_password", "secret is required in production")
		}
		if cfg.JWTSecret == developmentJWTSecret {
			fail("jwt_secret", "must not use the development default in production")
		}
	}

	return errors.Join(errs...)
}
