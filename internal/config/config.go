package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds the application configuration.
type Config struct {
	ServerPort    int
	DatabasePath  string
	MailUser      string // Sender address and SMTP username
	MailPassword  string
	SMTPHost      string
	SMTPPort      int
	ResetURLBase  string // Base URL the emailed reset link points at
	BcryptCost    int
	ResetTokenTTL time.Duration // 0 disables background pruning
	PruneSchedule string        // Cron expression for the pruner loop
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "3000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, err
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	ttl, err := time.ParseDuration(getEnv("RESET_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DB_URL", "./accounts.db"),
		MailUser:      getEnv("EMAIL", ""),
		MailPassword:  getEnv("PASSWORD", ""),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      smtpPort,
		ResetURLBase:  getEnv("PWRESETURL", "http://localhost:3000/reset-password"),
		BcryptCost:    cost,
		ResetTokenTTL: ttl,
		PruneSchedule: getEnv("RESET_PRUNE_SCHEDULE", "@hourly"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
