package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token repository kinds
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Contract check modes
const (
	ContractOff    = "off"
	ContractWarn   = "warn"
	ContractStrict = "strict"
)

// Config holds client configuration
type Config struct {
	BackendURL      string
	TokenStore      string // file, sqlite, postgres
	TokenPath       string
	DatabaseURL     string
	StorePassphrase string
	HTTPTimeout     time.Duration
	ContractCheck   string // off, warn, strict
	AgentAddr       string
	RefreshInterval time.Duration
	LogLevel        string
	LogFormat       string
	Environment     string // development, staging, production
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// A missing .env file is normal for a CLI
	_ = godotenv.Load()

	cfg := &Config{
		BackendURL:      getEnv("AUTHFORT_BACKEND_URL", "http://localhost:8080/api/v1.0"),
		TokenStore:      getEnv("AUTHFORT_TOKEN_STORE", StoreFile),
		TokenPath:       getEnv("AUTHFORT_TOKEN_PATH", DefaultTokenPath()),
		DatabaseURL:     getEnv("AUTHFORT_DATABASE_URL", ""),
		StorePassphrase: getEnv("AUTHFORT_STORE_PASSPHRASE", ""),
		ContractCheck:   getEnv("AUTHFORT_CONTRACT_CHECK", ""),
		AgentAddr:       getEnv("AUTHFORT_AGENT_ADDR", "127.0.0.1:7420"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		Environment:     getEnv("ENVIRONMENT", "development"),
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("AUTHFORT_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration("AUTHFORT_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration for correctness and fills mode defaults
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("AUTHFORT_BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL)
	}

	switch c.TokenStore {
	case StoreFile:
		if c.TokenPath == "" {
			return fmt.Errorf("AUTHFORT_TOKEN_PATH must be set for the file token store")
		}
	case StoreSQLite, StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("AUTHFORT_DATABASE_URL must be set for the %s token store", c.TokenStore)
		}
	default:
		return fmt.Errorf("unknown AUTHFORT_TOKEN_STORE %q", c.TokenStore)
	}

	switch c.ContractCheck {
	case "":
		// Check responses while developing, stay quiet in production
		if c.IsProduction() {
			c.ContractCheck = ContractOff
		} else {
			c.ContractCheck = ContractWarn
		}
	case ContractOff, ContractWarn, ContractStrict:
	default:
		return fmt.Errorf("unknown AUTHFORT_CONTRACT_CHECK %q", c.ContractCheck)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("AUTHFORT_HTTP_TIMEOUT must be positive")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("AUTHFORT_REFRESH_INTERVAL must be positive")
	}

	if c.IsProduction() {
		if u.Scheme != "https" {
			return fmt.Errorf("AUTHFORT_BACKEND_URL must use https in production")
		}
		if c.TokenStore == StoreFile && c.StorePassphrase == "" {
			return fmt.Errorf("AUTHFORT_STORE_PASSPHRASE must be set for the file token store in production")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

// DefaultTokenPath returns ~/.authfort/credentials.yaml
func DefaultTokenPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".authfort", "credentials.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
