package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Database configuration
	DatabasePath string

	// Schedule configuration
	PollSchedule string // cron expression (with seconds) for scheduled runs

	// Reddit API credentials
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	// Pipeline limits
	PostLimit        int           // max posts fetched per keyword search
	CommentLimit     int           // max comments fetched per post
	PostDelay        time.Duration // pause between posts within one job
	RetryAttempts    int           // retries on rate-limited upstream calls
	RetryDelay       time.Duration // backoff between retries
	MaxJobsPerRun    int           // per-invocation job budget for scheduled runs (0 = unlimited)
	ContentMaxLength int           // mention content is truncated to this length

	// Alerting configuration
	AlertWebhookURL string
	AlertEmail      string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabasePath: getEnv("DATABASE_PATH", "mentions.db"),

		PollSchedule: getEnv("POLL_SCHEDULE", "0 */15 * * * *"),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "BrandPulseBot/1.0"),

		PostLimit:        getIntEnv("POST_LIMIT", 25),
		CommentLimit:     getIntEnv("COMMENT_LIMIT", 3),
		PostDelay:        getDurationEnv("POST_DELAY", 500*time.Millisecond),
		RetryAttempts:    getIntEnv("RETRY_ATTEMPTS", 3),
		RetryDelay:       getDurationEnv("RETRY_DELAY", 2*time.Second),
		MaxJobsPerRun:    getIntEnv("MAX_JOBS_PER_RUN", 25),
		ContentMaxLength: getIntEnv("CONTENT_MAX_LENGTH", 2000),

		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),
		AlertEmail:      getEnv("ALERT_EMAIL", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getIntEnv("SMTP_PORT", 587),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.RedditClientID == "" || c.RedditClientSecret == "" {
		return fmt.Errorf("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required")
	}

	if c.RedditUserAgent == "" {
		return fmt.Errorf("REDDIT_USER_AGENT must not be empty")
	}

	if c.AlertEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when ALERT_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
