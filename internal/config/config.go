package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Session  SessionConfig
	Redirect RedirectConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port    string
	BaseURL string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	PoolMin    int
	PoolMax    int
	Autocommit bool
	Timeout    time.Duration
}

// StorageConfig holds object-store configuration
type StorageConfig struct {
	BucketName string
	ProjectID  string
}

// SessionConfig holds session and hashid configuration. SecretKey doubles
// as the hashid salt, as in the original deployment; rotating it
// invalidates all previously issued short codes.
type SessionConfig struct {
	SecretKey       string
	HashidMinLength int
}

// RedirectConfig selects between local resolution and unconditional
// forwarding to an external redirect service.
type RedirectConfig struct {
	UseRedirectService bool
	ServiceURL         string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Verbose bool
}

// Load builds a Config from environment variables, reading a .env file
// first when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine outside local development

	dbPort, err := envInt("DB_PORT", 3306)
	if err != nil {
		return nil, err
	}
	poolMin, err := envInt("DB_POOL_MIN_SIZE", 1)
	if err != nil {
		return nil, err
	}
	poolMax, err := envInt("DB_POOL_MAX_SIZE", 10)
	if err != nil {
		return nil, err
	}
	timeoutSecs, err := envInt("DB_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	minLength, err := envInt("HASHID_MIN_LENGTH", 4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    envString("PORT", "8080"),
			BaseURL: envString("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:       envString("DB_HOST", "localhost"),
			Port:       dbPort,
			User:       envString("DB_USER", ""),
			Password:   envString("DB_PASSWORD", ""),
			Database:   envString("DB_DATABASE", "urlshortener"),
			PoolMin:    poolMin,
			PoolMax:    poolMax,
			Autocommit: envBool("DB_AUTOCOMMIT", false),
			Timeout:    time.Duration(timeoutSecs) * time.Second,
		},
		Storage: StorageConfig{
			BucketName: envString("GCS_BUCKET_NAME", ""),
			ProjectID:  envString("GCP_PROJECT_ID", ""),
		},
		Session: SessionConfig{
			SecretKey:       envString("SECRET_KEY", ""),
			HashidMinLength: minLength,
		},
		Redirect: RedirectConfig{
			UseRedirectService: envBool("USE_REDIRECT_SERVICE", false),
			ServiceURL:         envString("REDIRECT_SERVICE_URL", ""),
		},
		Logging: LoggingConfig{
			Verbose: envBool("VERBOSE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.Session.SecretKey == "" {
		return fmt.Errorf("secret key cannot be empty")
	}
	if c.Session.HashidMinLength <= 0 {
		return fmt.Errorf("hashid min length must be positive, got: %d", c.Session.HashidMinLength)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database port out of range: %d", c.Database.Port)
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("pool min size cannot be negative, got: %d", c.Database.PoolMin)
	}
	if c.Database.PoolMax <= 0 {
		return fmt.Errorf("pool max size must be positive, got: %d", c.Database.PoolMax)
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("pool min size %d exceeds pool max size %d", c.Database.PoolMin, c.Database.PoolMax)
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive, got: %v", c.Database.Timeout)
	}
	if c.Redirect.UseRedirectService && c.Redirect.ServiceURL == "" {
		return fmt.Errorf("redirect service URL required when USE_REDIRECT_SERVICE is enabled")
	}
	return nil
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, value)
	}
	return n, nil
}

func envBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
