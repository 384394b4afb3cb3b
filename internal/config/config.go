// Package config handles loading runtime configuration for the Championship League API.
// Values are read from environment variables (optionally seeded from a .env file), so the
// same binary runs in development, staging and production with only the environment changed.
// An optional YAML file can provide base values for a deployment; env vars always win.
package config

import (
	"fmt"
	"os"
	"strconv"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration values for the application.
// The yaml tags are only used when CONFIG_FILE points at a YAML file.
type Config struct {
	Port           string `yaml:"port"`            // TCP port for the HTTP server (e.g. "8080")
	DatabaseURL    string `yaml:"database_url"`    // Postgres DSN, or a sqlite file path when DBDriver is "sqlite"
	DBDriver       string `yaml:"db_driver"`       // "postgres" (default) or "sqlite"
	MigrationsPath string `yaml:"migrations_path"` // Source URL for golang-migrate, e.g. "file://migrations"
	JWTSecret      string `yaml:"jwt_secret"`      // HMAC secret for verifying bearer tokens
	Env            string `yaml:"env"`             // "development", "staging" or "production"
	LogLevel       string `yaml:"log_level"`       // zerolog level name: debug, info, warn, error
	NATSURL        string `yaml:"nats_url"`        // External NATS server; empty means no external broker
	NATSEmbedded   bool   `yaml:"nats_embedded"`   // Start an in-process NATS server (development)
	NATSSubject    string `yaml:"nats_subject"`    // Subject prefix for published notifications
	TopListLimit   int    `yaml:"top_list_limit"`  // Size of the top scorers / top assists lists
}

// defaults returns the values used when neither the YAML file nor the environment sets a field.
func defaults() Config {
	return Config{
		Port:           "8080",
		DBDriver:       "postgres",
		MigrationsPath: "file://migrations",
		Env:            "development",
		LogLevel:       "info",
		NATSSubject:    "championship",
		TopListLimit:   10,
	}
}

// Load reads configuration from the environment and returns a populated Config.
// A missing .env file is fine: in production the deployment platform sets real env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.MigrationsPath)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.NATSEmbedded = getEnvAsBool("NATS_EMBEDDED", cfg.NATSEmbedded)
	cfg.NATSSubject = getEnv("NATS_SUBJECT", cfg.NATSSubject)
	cfg.TopListLimit = getEnvAsInt("TOP_LIST_LIMIT", cfg.TopListLimit)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the server runs with development conveniences
// (unverified tokens, pretty logs, embedded broker).
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be 'postgres' or 'sqlite', got %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.TopListLimit <= 0 {
		return fmt.Errorf("TOP_LIST_LIMIT must be positive, got %d", c.TopListLimit)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
