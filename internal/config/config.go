// Package config loads the API configuration from the environment.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     string `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"agencyledger"`
		Password string `envconfig:"DB_PASSWORD" default:"agencyledger"`
		Name     string `envconfig:"DB_NAME" default:"agencyledger"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	}

	// JWTSecret signs the bearer tokens that carry the caller's organization.
	JWTSecret string `envconfig:"JWT_SECRET" default:"fallback-secret-key-for-dev-only"`

	// JobsAPIKey guards the batch endpoints called by external schedulers.
	// Empty disables those endpoints.
	JobsAPIKey string `envconfig:"JOBS_API_KEY"`

	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	DashboardCacheTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"60s"`

	TopClientsLimit    int    `envconfig:"TOP_CLIENTS_LIMIT" default:"5"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

var appConfig *Config

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.TopClientsLimit <= 0 {
		return nil, fmt.Errorf("TOP_CLIENTS_LIMIT must be positive, got %d", cfg.TopClientsLimit)
	}

	appConfig = &cfg
	return &cfg, nil
}

// Get returns the loaded configuration, loading it on first use.
func Get() *Config {
	if appConfig == nil {
		cfg, err := Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		appConfig = cfg
	}
	return appConfig
}

// DSN returns the PostgreSQL keyword/value connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

// MigrationURL returns the postgres:// URL expected by golang-migrate.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
