// File path: internal/sqlite/config.go
package sqlite

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the SQLite catalog connection.
type Config struct {
	Path string

	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration

	// Retention drops datasets whose last replacement is older than this.
	// Zero keeps them forever.
	Retention time.Duration
}

// Merge overlays non-zero override fields onto the base configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Path) != "" {
		result.Path = strings.TrimSpace(override.Path)
	}
	if override.MaxOpenConns > 0 {
		result.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns > 0 {
		result.MaxIdleConns = override.MaxIdleConns
	}
	if override.BusyTimeout > 0 {
		result.BusyTimeout = override.BusyTimeout
	}
	if override.Retention > 0 {
		result.Retention = override.Retention
	}
	return result
}

// LoadConfig reads catalog settings from the environment and applies
// defaults.
func LoadConfig() (Config, error) {
	cfg := Config{}
	cfg.Path = strings.TrimSpace(os.Getenv("CRONOPLAN_CATALOG_PATH"))
	if v := strings.TrimSpace(os.Getenv("CRONOPLAN_CATALOG_MAX_CONNS")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CRONOPLAN_CATALOG_MAX_CONNS: %w", err)
		}
		cfg.MaxOpenConns = parsed
	}
	if v := strings.TrimSpace(os.Getenv("CRONOPLAN_CATALOG_BUSY_TIMEOUT")); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CRONOPLAN_CATALOG_BUSY_TIMEOUT: %w", err)
		}
		cfg.BusyTimeout = parsed
	}
	if v := strings.TrimSpace(os.Getenv("CRONOPLAN_CATALOG_RETENTION")); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CRONOPLAN_CATALOG_RETENTION: %w", err)
		}
		cfg.Retention = parsed
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 4
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 2
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
}
