package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// configEnv lists every variable Load reads.
var configEnv = []string{
	"ENV_FILE", "LOG_LEVEL", "LOG_FORMAT", "LISTEN_ADDR", "METRICS_LISTEN_ADDR",
	"DATABASE_DRIVER", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"ADMIN_MASTER_KEY", "MAILGUN_API_KEY", "MAILGUN_DOMAIN", "MAILGUN_BASE_URL",
	"MAIL_FROM", "GEOIP_DB_PATH", "TOKEN_TTL", "MAX_BODY_BYTES",
}

// clearEnv empties every config variable for the test and points ENV_FILE at
// a file that does not exist.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := map[string][2]string{
		"LogLevel":          {cfg.LogLevel, "info"},
		"LogFormat":         {cfg.LogFormat, "json"},
		"ListenAddr":        {cfg.ListenAddr, DefaultListenAddr},
		"MetricsListenAddr": {cfg.MetricsListenAddr, DefaultMetricsListenAddr},
		"DatabaseDriver":    {cfg.DatabaseDriver, "sqlite"},
		"DatabaseURL":       {cfg.DatabaseURL, "/data/jarviz.db"},
		"MailgunDomain":     {cfg.MailgunDomain, "jarviz.io"},
		"MailFrom":          {cfg.MailFrom, "hal9000@jarviz.io"},
		"RedisAddr":         {cfg.RedisAddr, ""},
		"MailgunAPIKey":     {cfg.MailgunAPIKey, ""},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if cfg.TokenTTL != 336*time.Hour {
		t.Errorf("TokenTTL = %s, want 336h", cfg.TokenTTL)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("MaxBodyBytes = %d, want 1 MiB", cfg.MaxBodyBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://jarviz@db/jarviz")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("MAX_BODY_BYTES", "4096")
	t.Setenv("MAILGUN_API_KEY", "key-abc")
	t.Setenv("MAILGUN_BASE_URL", "http://mockmail:8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Errorf("log settings = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.DatabaseDriver != "postgres" || cfg.DatabaseURL != "postgres://jarviz@db/jarviz" {
		t.Errorf("database = %q %q", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis = %q db %d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.TokenTTL != 24*time.Hour || cfg.MaxBodyBytes != 4096 {
		t.Errorf("ttl = %s, max body = %d", cfg.TokenTTL, cfg.MaxBodyBytes)
	}
	if cfg.MailgunAPIKey != "key-abc" || cfg.MailgunBaseURL != "http://mockmail:8081" {
		t.Errorf("mailgun = %q %q", cfg.MailgunAPIKey, cfg.MailgunBaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REDIS_DB", "two"},
		{"TOKEN_TTL", "14 days"},
		{"MAX_BODY_BYTES", "1MB"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Load() error = %v, want error naming %s", err, tt.key)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	content := "LISTEN_ADDR=:9999\nMAIL_FROM=noreply@example.com\nLOG_LEVEL=error\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	// godotenv only fills variables that are unset; remove the empty ones.
	for _, k := range []string{"LISTEN_ADDR", "MAIL_FROM"} {
		os.Unsetenv(k) //nolint:errcheck
	}
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":9999" || cfg.MailFrom != "noreply@example.com" {
		t.Errorf("env file not applied: %q %q", cfg.ListenAddr, cfg.MailFrom)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("env file overrode LOG_LEVEL: %q", cfg.LogLevel)
	}
}

func TestLoad_BrokenEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "broken.env")
	if err := os.WriteFile(path, []byte("NOT A VALID LINE 'unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)

	if _, err := Load(); err == nil {
		t.Error("expected error for a malformed env file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LogLevel:       "info",
			LogFormat:      "json",
			DatabaseDriver: "sqlite",
			DatabaseURL:    ":memory:",
			MailgunDomain:  "jarviz.io",
			TokenTTL:       time.Hour,
			MaxBodyBytes:   1024,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"bad driver", func(c *Config) { c.DatabaseDriver = "mysql" }, "DATABASE_DRIVER"},
		{"empty url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"negative redis db", func(c *Config) { c.RedisDB = -1 }, "REDIS_DB"},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, "TOKEN_TTL"},
		{"zero body", func(c *Config) { c.MaxBodyBytes = 0 }, "MAX_BODY_BYTES"},
		{"mailgun without domain", func(c *Config) { c.MailgunAPIKey = "k"; c.MailgunDomain = "" }, "MAILGUN_DOMAIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
