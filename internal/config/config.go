// Package config provides runtime configuration values for the cart client and server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/nikolayk812/cartsync/internal/domain"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by cmd/cartd and cmd/cartctl. Values are read
// once at process start and are not mutated afterwards.
type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	// client
	APIBaseURL  string        `yaml:"api_base_url"`
	OwnerID     string        `yaml:"owner_id"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	AlertTTL    time.Duration `yaml:"alert_ttl"`

	// server
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DatabaseURL     string        `yaml:"database_url"`
	RedisURL        string        `yaml:"redis_url"`
	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl"`
	SeedCatalog     bool          `yaml:"seed_catalog"`

	// shared
	Currency    string `yaml:"currency"`
	MaxQuantity int    `yaml:"max_quantity"`

	OTelExporter string `yaml:"otel_exporter"`
	OTelEndpoint string `yaml:"otel_endpoint"`
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envParser reads typed variables and collects every malformed value.
type envParser struct {
	errs []error
}

func (p *envParser) integer(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s[%s] is not an integer", key, v))
		return def
	}
	return n
}

func (p *envParser) boolean(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s[%s] is not a boolean", key, v))
		return def
	}
	return b
}

func (p *envParser) millis(key string, def time.Duration) time.Duration {
	return time.Duration(p.integer(key, int(def/time.Millisecond))) * time.Millisecond
}

func (p *envParser) seconds(key string, def time.Duration) time.Duration {
	return time.Duration(p.integer(key, int(def/time.Second))) * time.Second
}

// Load collects configuration from the environment with defaults. When
// CARTSYNC_CONFIG names a YAML file its values are applied first and
// environment variables override them.
func Load() (Config, error) {
	base := Defaults()

	if path := os.Getenv("CARTSYNC_CONFIG"); path != "" {
		var err error
		base, err = LoadFile(path, base)
		if err != nil {
			return Config{}, err
		}
	}

	var env envParser
	cfg := Config{
		AppEnv:          getenv("APP_ENV", base.AppEnv),
		LogLevel:        getenv("LOG_LEVEL", base.LogLevel),
		APIBaseURL:      getenv("API_BASE_URL", base.APIBaseURL),
		OwnerID:         getenv("OWNER_ID", base.OwnerID),
		HTTPTimeout:     env.millis("HTTP_TIMEOUT_MS", base.HTTPTimeout),
		AlertTTL:        env.millis("ALERT_TTL_MS", base.AlertTTL),
		HTTPAddr:        getenv("HTTP_ADDR", base.HTTPAddr),
		ShutdownTimeout: env.seconds("SHUTDOWN_TIMEOUT", base.ShutdownTimeout),
		DatabaseURL:     getenv("DATABASE_URL", base.DatabaseURL),
		RedisURL:        getenv("REDIS_URL", base.RedisURL),
		CatalogCacheTTL: env.seconds("CATALOG_CACHE_TTL", base.CatalogCacheTTL),
		SeedCatalog:     env.boolean("SEED_CATALOG", base.SeedCatalog),
		Currency:        getenv("CURRENCY", base.Currency),
		MaxQuantity:     env.integer("MAX_QUANTITY", base.MaxQuantity),
		OTelExporter:    getenv("OTEL_EXPORTER", base.OTelExporter),
		OTelEndpoint:    getenv("OTEL_ENDPOINT", base.OTelEndpoint),
	}

	if err := errors.Join(append(env.errs, cfg.Validate())...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func Defaults() Config {
	return Config{
		AppEnv:          "dev",
		LogLevel:        "info",
		APIBaseURL:      "http://localhost:8080",
		OwnerID:         "default",
		HTTPTimeout:     5 * time.Second,
		AlertTTL:        3 * time.Second,
		HTTPAddr:        ":8080",
		ShutdownTimeout: 15 * time.Second,
		CatalogCacheTTL: 60 * time.Second,
		SeedCatalog:     true,
		Currency:        "USD",
		MaxQuantity:     domain.MaxQuantity,
		OTelExporter:    "none",
	}
}

// LoadFile overlays the YAML document at path onto base.
func LoadFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("os.ReadFile: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml.Unmarshal[%s]: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL[%s] is not an absolute URL", c.APIBaseURL))
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		errs = append(errs, fmt.Errorf("CURRENCY[%s] is not valid: %w", c.Currency, err))
	}
	if c.MaxQuantity < domain.MinQuantity {
		errs = append(errs, fmt.Errorf("MAX_QUANTITY[%d] is below %d", c.MaxQuantity, domain.MinQuantity))
	}
	if c.OwnerID == "" {
		errs = append(errs, fmt.Errorf("OWNER_ID is empty"))
	}
	switch c.OTelExporter {
	case "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("OTEL_EXPORTER[%s] is not one of none, stdout, otlp", c.OTelExporter))
	}

	return errors.Join(errs...)
}

// CurrencyUnit returns the parsed default currency. Validate guarantees it parses.
func (c Config) CurrencyUnit() currency.Unit {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.USD
	}
	return unit
}

func (c Config) QuantityBounds() domain.QuantityBounds {
	return domain.QuantityBounds{Min: domain.MinQuantity, Max: c.MaxQuantity}
}
