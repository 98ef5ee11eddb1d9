// Package config provides YAML-based configuration loading for the monitor.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// MaxHistoryLimit caps how many sessions a single history request may fetch.
const MaxHistoryLimit = 1000

// Config is the top-level configuration, loaded from neume.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	History   HistoryConfig   `yaml:"history"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	AccessLog bool   `yaml:"access_log"`
}

// StoreConfig selects and locates the record store. Path is used by the
// sqlite driver; the remaining fields by mysql.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// HistoryConfig holds defaults for the history endpoint.
type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

// RetentionConfig controls scheduled pruning of old sessions. KeepDays of
// zero disables pruning.
type RetentionConfig struct {
	KeepDays int    `yaml:"keep_days"`
	Schedule string `yaml:"schedule"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if c.Store.Driver == DriverSQLite && c.Store.Path == "" {
		c.Store.Path = "neume.db"
	}
	if c.Store.Driver == DriverMySQL {
		if c.Store.Host == "" {
			c.Store.Host = "127.0.0.1"
		}
		if c.Store.Port == 0 {
			c.Store.Port = 3306
		}
		if c.Store.User == "" {
			c.Store.User = "root"
		}
		if c.Store.Database == "" {
			c.Store.Database = "neume"
		}
	}
	if c.History.Limit == 0 {
		c.History.Limit = 100
	}
	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "0 3 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverMySQL:
		if c.Store.Port < 1 || c.Store.Port > 65535 {
			errs = append(errs, fmt.Sprintf("store.port %d out of range", c.Store.Port))
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be %q or %q", c.Store.Driver, DriverSQLite, DriverMySQL))
	}
	if c.History.Limit < 1 || c.History.Limit > MaxHistoryLimit {
		errs = append(errs, fmt.Sprintf("history.limit must be between 1 and %d", MaxHistoryLimit))
	}
	if c.Retention.KeepDays < 0 {
		errs = append(errs, "retention.keep_days must not be negative")
	}
	if _, err := cron.ParseStandard(c.Retention.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("retention.schedule %q: %v", c.Retention.Schedule, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
