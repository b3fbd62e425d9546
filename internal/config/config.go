package config

import (
	"os"
	"strings"
)

const (
	defaultDBPath   = "./printquote.db"
	defaultPort     = "8080"
	defaultEnv      = "development"
	defaultLogLevel = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	Env           string
	PricingFile   string
	LogLevel      string
}

// Load reads environment variables and returns a populated Config. Values in
// a local .env file fill in variables that are not already set.
func Load() Config {
	_ = loadDotEnv(".env")

	cfg := Config{
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        envOr("DB_PATH", defaultDBPath),
		Port:          envOr("PORT", defaultPort),
		Env:           strings.ToLower(envOr("APP_ENV", defaultEnv)),
		PricingFile:   os.Getenv("PRICING_FILE"),
		LogLevel:      strings.ToLower(envOr("LOG_LEVEL", defaultLogLevel)),
	}
	return cfg
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var warnings []string
	if c.AdminEmail == "" {
		warnings = append(warnings, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		warnings = append(warnings, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set")
	}
	return warnings
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
