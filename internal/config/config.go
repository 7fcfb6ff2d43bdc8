package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	ServerPort          int    `yaml:"port"`
	ExpiryHours         int    `yaml:"expiry_hours"`
	AllowedOrigin       string `yaml:"allowed_origin"`
	PublicBaseURL       string `yaml:"public_base_url"` // Prefix of shareable profile links
	StoreDriver         string `yaml:"store_driver"`
	DatabasePath        string `yaml:"database_path"`
	ReaperSchedule      string `yaml:"reaper_schedule"` // robfig/cron schedule
	LogLevel            string `yaml:"log_level"`
	LogPretty           bool   `yaml:"log_pretty"`
	RateLimitPerMinute  int    `yaml:"rate_limit_per_minute"` // 0 disables rate limiting
	RateLimitBurst      int    `yaml:"rate_limit_burst"`
	UniqueUsernames     bool   `yaml:"unique_usernames"`
	ResetClicksOnExpiry bool   `yaml:"reset_clicks_on_expiry"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ServerPort:         5000,
		ExpiryHours:        24,
		AllowedOrigin:      "http://localhost:3000",
		PublicBaseURL:      "http://ast-secret.vercel.app",
		StoreDriver:        StoreMemory,
		DatabasePath:       "./ast-secret.db",
		ReaperSchedule:     "@every 1h",
		LogLevel:           "info",
		LogPretty:          true,
		RateLimitPerMinute: 30,
		RateLimitBurst:     10,
	}
}

// ExpiryWindow is the lifetime of a profile.
func (c *Config) ExpiryWindow() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

// Load builds the configuration from defaults, an optional YAML file,
// environment variables and finally command-line flags, each layer
// overriding the previous one.
func Load(args []string) (*Config, error) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("ast-secret", pflag.ContinueOnError)
	configFile := fs.String("config", getEnv("CONFIG_FILE", ""), "path to a YAML config file")
	port := fs.Int("port", 0, "HTTP listen port")
	expiry := fs.Int("expiry-hours", 0, "profile lifetime in hours")
	origin := fs.String("allowed-origin", "", "origin allowed for CORS and websocket connections")
	driver := fs.String("store", "", "storage backend: memory or sqlite")
	dbPath := fs.String("database-path", "", "SQLite database file")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configFile != "" {
		if err := loadFile(cfg, *configFile); err != nil {
			return nil, err
		}
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}

	if fs.Changed("port") {
		cfg.ServerPort = *port
	}
	if fs.Changed("expiry-hours") {
		cfg.ExpiryHours = *expiry
	}
	if fs.Changed("allowed-origin") {
		cfg.AllowedOrigin = *origin
	}
	if fs.Changed("store") {
		cfg.StoreDriver = *driver
	}
	if fs.Changed("database-path") {
		cfg.DatabasePath = *dbPath
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	var err error
	if cfg.ServerPort, err = getEnvInt("PORT", cfg.ServerPort); err != nil {
		return err
	}
	if cfg.ExpiryHours, err = getEnvInt("EXPIRY_HOURS", cfg.ExpiryHours); err != nil {
		return err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute); err != nil {
		return err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return err
	}
	if cfg.LogPretty, err = getEnvBool("LOG_PRETTY", cfg.LogPretty); err != nil {
		return err
	}
	if cfg.UniqueUsernames, err = getEnvBool("UNIQUE_USERNAMES", cfg.UniqueUsernames); err != nil {
		return err
	}
	if cfg.ResetClicksOnExpiry, err = getEnvBool("RESET_CLICKS_ON_EXPIRY", cfg.ResetClicksOnExpiry); err != nil {
		return err
	}
	cfg.AllowedOrigin = getEnv("ALLOWED_ORIGIN", cfg.AllowedOrigin)
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.StoreDriver = getEnv("STORE_DRIVER", cfg.StoreDriver)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.ReaperSchedule = getEnv("REAPER_SCHEDULE", cfg.ReaperSchedule)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	return nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid port %d", c.ServerPort)
	}
	if c.ExpiryHours <= 0 {
		return fmt.Errorf("expiry hours must be positive, got %d", c.ExpiryHours)
	}
	if c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite {
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
