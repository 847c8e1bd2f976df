package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "JWT_SECRET", "TOKEN_TTL", "CORS_ORIGIN", "STATIC_PATH", "IMPORT_MAX_BYTES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.JWTSecret != DefaultJWTSecret {
		t.Errorf("expected dev secret fallback, got %q", cfg.JWTSecret)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected 7d token TTL, got %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("expected wildcard CORS default, got %v", cfg.CORSOrigins)
	}
	if cfg.ImportMaxBytes != 5<<20 {
		t.Errorf("expected 5MiB import cap, got %d", cfg.ImportMaxBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CORS_ORIGIN", "http://localhost:5173, https://app.example.com")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://app.example.com" {
		t.Errorf("expected trimmed origin list, got %v", cfg.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           "8080",
			DBPath:         "./data/test.db",
			JWTSecret:      "secret",
			TokenTTL:       time.Hour,
			CORSOrigins:    []string{"*"},
			ImportMaxBytes: 1024,
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"non-numeric port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "database path"},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, "JWT secret"},
		{"tiny token ttl", func(c *Config) { c.TokenTTL = time.Second }, "token TTL"},
		{"no origins", func(c *Config) { c.CORSOrigins = nil }, "CORS origin"},
		{"zero import cap", func(c *Config) { c.ImportMaxBytes = 0 }, "import size cap"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("valid config must pass: %v", err)
	}
}
