// Package config loads bot configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Required fields are validated together
// so the operator sees the full list of problems in one startup failure.
type Config struct {
	// Telegram
	TelegramToken   string  `env:"TELEGRAM_TOKEN"`
	ChiefRegentID   int64   `env:"CHIEF_REGENT_ID"`
	AdminIDs        []int64 `env:"ADMIN_IDS" envSeparator:","`
	StorageChannel  int64   `env:"STORAGE_CHANNEL_ID"`
	RepertoireGroup int64   `env:"REPERTOIRE_GROUP_ID"`

	// Tabular store. Sheets is the default backend; DATABASE_URL switches
	// to Postgres for self-hosted deployments.
	SheetID         string `env:"GOOGLE_SHEET_ID"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"credentials.json"`
	DatabaseURL     string `env:"DATABASE_URL"`

	// Optional file archives for permanent links.
	DriveFolderID string `env:"GOOGLE_DRIVE_FOLDER_ID"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`
	S3Bucket      string `env:"S3_BUCKET" envDefault:"choirbot-files"`
	S3UseSSL      bool   `env:"S3_USE_SSL" envDefault:"true"`

	// Shared process state (pinned list message ids, pending
	// clarifications). File-backed unless Redis is configured.
	RedisURL  string `env:"REDIS_URL"`
	StateFile string `env:"STATE_FILE" envDefault:"choirbot-state.json"`
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if len(cfg.AdminIDs) == 0 && cfg.ChiefRegentID != 0 {
		cfg.AdminIDs = []int64{cfg.ChiefRegentID}
	}
	return cfg, nil
}

// Validate collects every missing required setting.
func (c Config) Validate() error {
	var missing []string

	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN is not set")
	}
	if c.ChiefRegentID == 0 {
		missing = append(missing, "CHIEF_REGENT_ID is not set")
	}
	if c.DatabaseURL == "" {
		if c.SheetID == "" {
			missing = append(missing, "GOOGLE_SHEET_ID is not set (or set DATABASE_URL for the Postgres backend)")
		}
		if _, err := os.Stat(c.CredentialsFile); err != nil {
			missing = append(missing, fmt.Sprintf("Google credentials file not found: %s", c.CredentialsFile))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(missing, "\n  - "))
	}
	return nil
}

// IsAdmin reports whether id belongs to a privileged reviewer.
func (c Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
