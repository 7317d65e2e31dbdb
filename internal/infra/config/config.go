package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the reminder service.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string

	CronSpecReminderPass string        // cron spec for the recurring reminder pass
	CronSpecMaintenance  string        // cron spec for the daily maintenance pass
	StartupCatchupDelay  time.Duration // delay before the catch-up pass after start
	PruneProbability     float64       // per-bill chance of ledger pruning during a reminder pass

	NotificationRetentionDays int // dismissed notifications older than this are deleted

	SMTPHost     string // email dispatch disabled when empty
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPSender   string

	TelegramToken string // telegram push disabled when empty
}

// EmailEnabled reports whether SMTP dispatch is configured.
func (c *AppConfig) EmailEnabled() bool {
	return c.SMTPHost != ""
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecReminderPass = os.Getenv("CRON_SPEC_REMINDER_PASS")
	if cfg.CronSpecReminderPass == "" {
		// Hourly, so users in any timezone see reminders within an hour of
		// their local trigger time.
		cfg.CronSpecReminderPass = "0 * * * *"
	}

	cfg.CronSpecMaintenance = os.Getenv("CRON_SPEC_MAINTENANCE")
	if cfg.CronSpecMaintenance == "" {
		cfg.CronSpecMaintenance = "30 4 * * *" // Default: 04:30 daily
	}

	startupDelayStr := os.Getenv("STARTUP_CATCHUP_DELAY")
	if startupDelayStr == "" {
		startupDelayStr = "15s"
	}
	cfg.StartupCatchupDelay, err = time.ParseDuration(startupDelayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STARTUP_CATCHUP_DELAY: %w", err)
	}

	pruneProbStr := os.Getenv("PRUNE_PROBABILITY")
	if pruneProbStr == "" {
		pruneProbStr = "0.1"
	}
	cfg.PruneProbability, err = strconv.ParseFloat(pruneProbStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PRUNE_PROBABILITY: %w", err)
	}
	if cfg.PruneProbability < 0 || cfg.PruneProbability > 1 {
		return nil, fmt.Errorf("PRUNE_PROBABILITY must be between 0 and 1, got %v", cfg.PruneProbability)
	}

	retentionStr := os.Getenv("NOTIFICATION_RETENTION_DAYS")
	if retentionStr == "" {
		retentionStr = "30"
	}
	cfg.NotificationRetentionDays, err = strconv.Atoi(retentionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_RETENTION_DAYS: %w", err)
	}
	if cfg.NotificationRetentionDays < 1 {
		return nil, fmt.Errorf("NOTIFICATION_RETENTION_DAYS must be positive, got %d", cfg.NotificationRetentionDays)
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = os.Getenv("SMTP_PORT")
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPSender = os.Getenv("SMTP_SENDER")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	return cfg, nil
}
