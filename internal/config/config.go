package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "comptes.yaml"

// Environment variables that override file values.
const (
	EnvAPIURL      = "COMPTES_API_URL"
	EnvTimeout     = "COMPTES_TIMEOUT"
	EnvLogLevel    = "COMPTES_LOG_LEVEL"
	EnvRedisURL    = "COMPTES_REDIS_URL"
	EnvDatabaseURL = "COMPTES_DATABASE_URL"
)

// Config represents the top-level comptes.yaml configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
	Activity ActivityConfig `yaml:"activity"`
	Server   ServerConfig   `yaml:"server"`
}

// APIConfig locates the REST backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DisplayConfig controls how balances are rendered.
type DisplayConfig struct {
	Currency string `yaml:"currency"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ActivityConfig controls the local log of confirmed changes.
type ActivityConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig configures the development backend started by `comptes serve`.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	BasePath    string `yaml:"base_path"`
	Store       string `yaml:"store"` // memory, redis or postgres
	RedisURL    string `yaml:"redis_url,omitempty"`
	DatabaseURL string `yaml:"database_url,omitempty"`
}

// Load reads a comptes.yaml file from disk on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a local backend.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			Currency: "MAD",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Activity: ActivityConfig{
			Enabled: true,
			Path:    "comptes-activity.csv",
		},
		Server: ServerConfig{
			Addr:     ":8080",
			BasePath: "/api",
			Store:    "memory",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment. Variables already set win, and a missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with values from the environment.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Server.RedisURL = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Server.DatabaseURL = v
	}
	return nil
}

// Validate reports configuration that would make the client unusable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	switch c.Server.Store {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("server.store must be memory, redis or postgres, got %q", c.Server.Store)
	}
	return nil
}
