package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ConfigPath is read when CATALOG_CONFIG is unset.
const ConfigPath = "config.yaml"

// Store drivers accepted by StoreDriver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// Config holds catalog service settings. YAML keys come first; environment
// variables override them.
type Config struct {
	Port           string  `yaml:"port" env:"PORT"`
	LogLevel       string  `yaml:"logLevel" env:"LOG_LEVEL"`
	ServiceName    string  `yaml:"serviceName" env:"SERVICE_NAME"`
	StoreDriver    string  `yaml:"storeDriver" env:"STORE_DRIVER"`
	DatabaseURL    string  `yaml:"databaseURL" env:"DATABASE_URL"`
	SQLitePath     string  `yaml:"sqlitePath" env:"SQLITE_PATH"`
	WriteRateLimit float64 `yaml:"writeRateLimit" env:"WRITE_RATE_LIMIT"`
	WriteRateBurst int     `yaml:"writeRateBurst" env:"WRITE_RATE_BURST"`
	OTLPEndpoint   string  `yaml:"otlpEndpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func defaults() Config {
	return Config{
		Port:           "8081",
		LogLevel:       "info",
		ServiceName:    "catalog",
		StoreDriver:    DriverMemory,
		SQLitePath:     "data/catalog.db",
		WriteRateLimit: 50,
		WriteRateBurst: 100,
	}
}

// Load reads config from path (CATALOG_CONFIG, then config.yaml when empty).
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path == "" {
		path = os.Getenv("CATALOG_CONFIG")
	}
	if path == "" {
		path = ConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return errors.New("config: sqlitePath is required when storeDriver=sqlite")
		}
	case DriverPostgres, DriverPgx:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("config: databaseURL is required when storeDriver=%s (set in config.yaml or DATABASE_URL)", cfg.StoreDriver)
		}
	default:
		return fmt.Errorf("config: unknown storeDriver %q (memory, sqlite, postgres or pgx)", cfg.StoreDriver)
	}
	if cfg.WriteRateLimit < 0 {
		return errors.New("config: writeRateLimit must be >= 0")
	}
	if cfg.WriteRateLimit > 0 && cfg.WriteRateBurst <= 0 {
		return errors.New("config: writeRateBurst must be > 0 when writeRateLimit is set")
	}
	return nil
}
