// Package config loads site configuration from defaults, an optional YAML
// file and VERISITE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"verisite/internal/presale"
)

// EnvPrefix prefixes every environment override. Nested keys are separated by
// a double underscore: VERISITE_SERVER__ADDR sets server.addr.
const EnvPrefix = "VERISITE_"

// Config is the full site configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Mailing   MailingConfig   `koanf:"mailing"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Deck      DeckConfig      `koanf:"deck"`
	Presale   presale.Config  `koanf:"presale"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	BaseURL         string        `koanf:"base_url"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// MailingConfig selects the mailing-list provider. An empty BaseURL keeps
// sign-ups local.
type MailingConfig struct {
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
	ListID   string `koanf:"list_id"`
	MaxTries uint   `koanf:"max_tries"`
}

// AnalyticsConfig points at the event collector. An empty Endpoint logs events.
// Buffer bounds the slide views queued for delivery.
type AnalyticsConfig struct {
	Endpoint string `koanf:"endpoint"`
	Site     string `koanf:"site"`
	Buffer   int    `koanf:"buffer"`
}

type RateLimitConfig struct {
	Limit  int           `koanf:"limit"`
	Window time.Duration `koanf:"window"`
}

type DeckConfig struct {
	AutoAdvance bool          `koanf:"auto_advance"`
	Interval    time.Duration `koanf:"interval"`
	IdleTTL     time.Duration `koanf:"idle_ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:*", "http://127.0.0.1:*"},
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "data/verisite.db"},
		Log:      LogConfig{Level: "info"},
		Mailing:  MailingConfig{MaxTries: 3},
		Analytics: AnalyticsConfig{
			Site:   "verisite",
			Buffer: 256,
		},
		RateLimit: RateLimitConfig{Limit: 5, Window: time.Hour},
		Deck: DeckConfig{
			AutoAdvance: true,
			Interval:    8 * time.Second,
			IdleTTL:     2 * time.Hour,
		},
	}
}

// Load reads configuration from path (skipped if missing), then overlays
// environment overrides. PORT, when set, wins over server.addr.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Addr = ":" + port
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Mailing.BaseURL != "" && (c.Mailing.APIKey == "" || c.Mailing.ListID == "") {
		errs = append(errs, errors.New("mailing.api_key and mailing.list_id are required with mailing.base_url"))
	}
	if c.RateLimit.Limit < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.limit must be positive, got %d", c.RateLimit.Limit))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.Deck.AutoAdvance && c.Deck.Interval <= 0 {
		errs = append(errs, errors.New("deck.interval must be positive when auto_advance is on"))
	}
	for i, p := range c.Presale.Phases {
		if !p.EndsAt.After(p.StartsAt) {
			errs = append(errs, fmt.Errorf("presale.phases[%d] %q ends before it starts", i, p.Name))
		}
	}
	return errors.Join(errs...)
}
