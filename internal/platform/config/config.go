// Package config provides environment-based configuration.
//
// Loads from a .env file when present (godotenv), maps environment
// variables to the Config struct via go-simpler/env struct tags, and
// validates the result.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// AllowedOrigins is the CORS allowlist for the browser frontend. The
	// default is applied in Load: env's default tag is not comma-split for
	// slice fields, only actual env values are.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`

	// MaxBodySize caps multipart upload size, in echo's size notation.
	MaxBodySize string `env:"MAX_BODY_SIZE" default:"64M"`

	// SessionTTL is how long an idle session keeps its palette, source
	// images and tile cache in memory.
	SessionTTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// EvictionInterval is how often expired sessions are swept.
	EvictionInterval time.Duration `env:"EVICTION_INTERVAL" default:"5m"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.EvictionInterval <= 0 {
		return fmt.Errorf("EVICTION_INTERVAL must be positive, got %s", cfg.EvictionInterval)
	}
	if len(cfg.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS must list at least one origin")
	}
	return nil
}
