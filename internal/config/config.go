// Package config loads server configuration from a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// OIDC holds optional single sign-on settings. SSO is enabled when
// IssuerURL and ClientID are both set.
type OIDC struct {
	IssuerURL     string `yaml:"issuer_url"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	RedirectURL   string `yaml:"redirect_url"`
	EncryptionKey string `yaml:"encryption_key"` // 64 hex chars (32 bytes); generated if empty
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool {
	return o.IssuerURL != "" && o.ClientID != ""
}

// Config holds the server configuration.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"` // postgres DSN or sqlite path, per build
	EmailDomain string `yaml:"email_domain"`

	SessionTTL time.Duration `yaml:"session_ttl"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	SentryDSN string `yaml:"sentry_dsn"`

	OIDC OIDC `yaml:"oidc"`
}

// Load loads configuration from an optional YAML file, then applies
// environment overrides and defaults. Environment variables win.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:           ":8080",
		EmailDomain:    "mnnit.ac.in",
		SessionTTL:     24 * time.Hour,
		RateLimitRPS:   10,
		RateLimitBurst: 30,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("BOOKHUB_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("BOOKHUB_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("BOOKHUB_EMAIL_DOMAIN"); v != "" {
		cfg.EmailDomain = v
	}
	if v := os.Getenv("BOOKHUB_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = d
		}
	}
	if v := os.Getenv("BOOKHUB_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("BOOKHUB_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("BOOKHUB_SENTRY_DSN"); v != "" {
		cfg.SentryDSN = v
	}
	if v := os.Getenv("BOOKHUB_OIDC_ISSUER_URL"); v != "" {
		cfg.OIDC.IssuerURL = v
	}
	if v := os.Getenv("BOOKHUB_OIDC_CLIENT_ID"); v != "" {
		cfg.OIDC.ClientID = v
	}
	if v := os.Getenv("BOOKHUB_OIDC_CLIENT_SECRET"); v != "" {
		cfg.OIDC.ClientSecret = v
	}
	if v := os.Getenv("BOOKHUB_OIDC_REDIRECT_URL"); v != "" {
		cfg.OIDC.RedirectURL = v
	}
	if v := os.Getenv("BOOKHUB_OIDC_ENCRYPTION_KEY"); v != "" {
		cfg.OIDC.EncryptionKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required (set BOOKHUB_ADDR or yaml)")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if c.RateLimitRPS <= 0 {
		return errors.New("rate_limit_rps must be positive")
	}
	if c.RateLimitBurst < 1 {
		return errors.New("rate_limit_burst must be at least 1")
	}
	if c.OIDC.Enabled() {
		if c.OIDC.ClientSecret == "" {
			return errors.New("oidc.client_secret is required when SSO is enabled")
		}
		if c.OIDC.RedirectURL == "" {
			return errors.New("oidc.redirect_url is required when SSO is enabled")
		}
	}
	return nil
}
