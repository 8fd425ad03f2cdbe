// Package config loads service configuration from the environment.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddress string
	StaticDir   string
	LogLevel    string

	// EmailProvider selects the delivery backend: smtp, resend, or log.
	EmailProvider string
	SMTPHost      string
	SMTPPort      string

	// SendInterval is the pause between consecutive sends of a campaign.
	// Gmail in particular flags accounts that burst; keep this generous.
	SendInterval time.Duration
}

// NewFromEnv reads configuration, loading .env.<ENV> first for local
// development. Invalid values are fatal; missing ones fall back to defaults.
func NewFromEnv() *Config {
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}
	if err := godotenv.Load(".env." + env); err == nil {
		log.Println("Loaded environment variables from .env." + env)
	}

	config := &Config{
		HTTPAddress:   getenv("HTTP_ADDRESS", ":8080"),
		StaticDir:     getenv("STATIC_DIR", "static"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		EmailProvider: getenv("EMAIL_PROVIDER", "smtp"),
		SMTPHost:      getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		SendInterval:  3 * time.Second,
	}

	if raw := os.Getenv("SEND_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("SEND_INTERVAL %q is not a valid duration: %v", raw, err)
		}
		if interval < 0 {
			log.Fatalf("SEND_INTERVAL must not be negative, got %q", raw)
		}
		config.SendInterval = interval
	}

	return config
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
