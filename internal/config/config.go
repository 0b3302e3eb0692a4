// Package config loads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jarviz-io/jarviz-api/internal/logging"
)

// Defaults for optional settings.
const (
	DefaultListenAddr        = ":8080"
	DefaultMetricsListenAddr = "localhost:9090"
	DefaultDatabaseDriver    = "sqlite"
	DefaultDatabaseURL       = "/data/jarviz.db"
	DefaultMailgunDomain     = "jarviz.io"
	DefaultMailFrom          = "hal9000@jarviz.io"
	DefaultTokenTTL          = 14 * 24 * time.Hour
	DefaultMaxBodyBytes      = 1 << 20
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string // debug, info, warn, error
	LogFormat         string // json or text
	ListenAddr        string
	MetricsListenAddr string

	DatabaseDriver string // sqlite or postgres
	DatabaseURL    string // file path for sqlite, connection string for postgres

	// Tokens are kept in Redis when RedisAddr is set, in the database otherwise.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AdminMasterKey authenticates as admin until the first admin token exists.
	AdminMasterKey string

	// Mail is logged instead of sent when MailgunAPIKey is empty.
	MailgunAPIKey  string
	MailgunDomain  string
	MailgunBaseURL string
	MailFrom       string

	// GeoIPDBPath is a GeoLite2-City database. Locations are recorded as unknown without it.
	GeoIPDBPath string

	TokenTTL     time.Duration
	MaxBodyBytes int64
}

// Load reads the configuration from the environment. Variables from a .env
// file (or the file named by ENV_FILE) are applied first without overriding
// variables that are already set.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "json"),
		ListenAddr:        getenv("LISTEN_ADDR", DefaultListenAddr),
		MetricsListenAddr: getenv("METRICS_LISTEN_ADDR", DefaultMetricsListenAddr),
		DatabaseDriver:    strings.ToLower(getenv("DATABASE_DRIVER", DefaultDatabaseDriver)),
		DatabaseURL:       getenv("DATABASE_URL", DefaultDatabaseURL),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		AdminMasterKey:    os.Getenv("ADMIN_MASTER_KEY"),
		MailgunAPIKey:     os.Getenv("MAILGUN_API_KEY"),
		MailgunDomain:     getenv("MAILGUN_DOMAIN", DefaultMailgunDomain),
		MailgunBaseURL:    os.Getenv("MAILGUN_BASE_URL"),
		MailFrom:          getenv("MAIL_FROM", DefaultMailFrom),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		TokenTTL:          DefaultTokenTTL,
		MaxBodyBytes:      DefaultMaxBodyBytes,
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.TokenTTL = ttl
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_BODY_BYTES %q: %w", v, err)
		}
		cfg.MaxBodyBytes = n
	}

	return cfg, nil
}

func loadEnvFile() error {
	path := getenv("ENV_FILE", ".env")
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must not be empty")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative, got %d", c.RedisDB)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.MailgunAPIKey != "" && c.MailgunDomain == "" {
		return errors.New("MAILGUN_DOMAIN is required when MAILGUN_API_KEY is set")
	}
	return nil
}
