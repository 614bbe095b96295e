package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Remote authority (the photo download backend)
	AuthorityURL string        `env:"PHOTOADMIN_AUTHORITY_URL,required"` // e.g., https://photos.example.com
	HTTPTimeout  time.Duration `env:"PHOTOADMIN_HTTP_TIMEOUT" envDefault:"30s"`

	// Database
	DatabasePath string `env:"PHOTOADMIN_DATABASE_PATH" envDefault:"./data/photoadmin.db"`

	// Per-account config defaults
	DefaultFolderFormat string `env:"PHOTOADMIN_FOLDER_FORMAT" envDefault:"2006/01/02"`
	DefaultConcurrency  int    `env:"PHOTOADMIN_CONCURRENCY" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.AuthorityURL); err != nil {
		return nil, fmt.Errorf("PHOTOADMIN_AUTHORITY_URL is not a valid URL: %w", err)
	}
	if cfg.DefaultConcurrency < 1 {
		return nil, fmt.Errorf("PHOTOADMIN_CONCURRENCY must be at least 1, got %d", cfg.DefaultConcurrency)
	}

	return cfg, nil
}
