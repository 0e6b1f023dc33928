// Package config loads fileshare settings from an optional YAML file and the
// environment, and validates them before the server starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every externally configurable setting.
type Config struct {
	Port            int           `yaml:"port"`
	BaseURL         string        `yaml:"base_url"`
	StorageDir      string        `yaml:"storage_dir"`
	DatabaseURL     string        `yaml:"database_url"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	TrustProxy      bool          `yaml:"trust_proxy"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	SweepInterval   time.Duration `yaml:"sweep_interval"` // 0 disables the temp-file sweeper
	TempMaxAge      time.Duration `yaml:"temp_max_age"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:            80,
		StorageDir:      "uploads",
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 5 * time.Second,
		SweepInterval:   10 * time.Minute,
		TempMaxAge:      time.Hour,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// SHARE_CONFIG (if any), then environment variables. The result is validated.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("SHARE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL(cfg.Port)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Addr is the listen address. The server always binds every interface.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	if c.Port, err = getEnvInt("SHARE_PORT", c.Port); err != nil {
		return err
	}
	c.BaseURL = getEnvDefault("SHARE_BASE_URL", c.BaseURL)
	c.StorageDir = getEnvDefault("SHARE_STORAGE_DIR", c.StorageDir)
	c.DatabaseURL = getEnvDefault("DATABASE_URL", c.DatabaseURL)
	if c.MaxUploadBytes, err = getEnvInt64("SHARE_MAX_UPLOAD_BYTES", c.MaxUploadBytes); err != nil {
		return err
	}
	if c.TrustProxy, err = getEnvBool("SHARE_TRUST_PROXY", c.TrustProxy); err != nil {
		return err
	}
	c.LogLevel = strings.ToLower(getEnvDefault("SHARE_LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getEnvDefault("SHARE_LOG_FORMAT", c.LogFormat))
	if c.ShutdownTimeout, err = getEnvDuration("SHARE_SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	if c.SweepInterval, err = getEnvDuration("SHARE_SWEEP_INTERVAL", c.SweepInterval); err != nil {
		return err
	}
	if c.TempMaxAge, err = getEnvDuration("SHARE_TEMP_MAX_AGE", c.TempMaxAge); err != nil {
		return err
	}
	return nil
}

func defaultBaseURL(port int) string {
	if port == 80 {
		return "http://localhost"
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer: %w", key, err)
	}
	return v, nil
}

func getEnvInt64(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: must be a boolean: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be a duration (e.g. 5s): %w", key, err)
	}
	return v, nil
}
