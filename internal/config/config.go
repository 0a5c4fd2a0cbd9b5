package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	Port         string
	JWTSecret    string
	TokenTTL     time.Duration

	// AllowDevOverride lets the distinguished "dev" identity bypass
	// ownership checks. Must stay off in production.
	AllowDevOverride bool
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := os.Getenv("MEALBOARD_DB_PATH")
	if dbPath == "" {
		return nil, fmt.Errorf("MEALBOARD_DB_PATH environment variable not set")
	}

	jwtSecret := os.Getenv("MEALBOARD_JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("MEALBOARD_JWT_SECRET environment variable not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	tokenTTL := 24 * time.Hour
	if ttlStr := os.Getenv("MEALBOARD_TOKEN_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid MEALBOARD_TOKEN_TTL %q: %w", ttlStr, err)
		}
		tokenTTL = ttl
	}

	allowDevOverride := false
	if v := os.Getenv("MEALBOARD_ALLOW_DEV_OVERRIDE"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MEALBOARD_ALLOW_DEV_OVERRIDE %q: %w", v, err)
		}
		allowDevOverride = parsed
	}

	return &Config{
		DatabasePath:     dbPath,
		Port:             port,
		JWTSecret:        jwtSecret,
		TokenTTL:         tokenTTL,
		AllowDevOverride: allowDevOverride,
	}, nil
}
