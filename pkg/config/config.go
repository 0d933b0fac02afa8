// Package config loads the uatfeed daemon configuration from a JSON file
// with environment-variable overrides for sensitive values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete daemon configuration.
type Config struct {
	Input    InputConfig    `json:"input"`
	Reporter ReporterConfig `json:"reporter"`
	Database DatabaseConfig `json:"database"`
	API      APIConfig      `json:"api"`
}

// InputConfig describes where decoded UAT messages come from.
type InputConfig struct {
	// Source is "tcp" for a dump978-style json-port, or "stdin" for a
	// locally piped demodulator.
	Source string `json:"source"`

	// Host and Port locate the json-port when Source is "tcp".
	Host string `json:"host"`
	Port int    `json:"port"`

	// ReconnectMaxSeconds caps the exponential backoff between
	// reconnection attempts.
	ReconnectMaxSeconds float64 `json:"reconnect_max_seconds"`
}

// ReporterConfig holds the feed timing knobs.
type ReporterConfig struct {
	// IntervalSeconds is the report evaluation period.
	IntervalSeconds float64 `json:"interval_seconds"`

	// TimeoutSeconds is how long an aircraft survives without messages
	// before it is purged; the ledger purge runs at a quarter of this.
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// SlowRefreshSeconds is the full-refresh period for slow fields.
	SlowRefreshSeconds float64 `json:"slow_refresh_seconds"`
}

// Interval returns the report period as a duration.
func (c ReporterConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// Timeout returns the aircraft staleness timeout as a duration.
func (c ReporterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// SlowRefresh returns the slow-field refresh period as a duration.
func (c ReporterConfig) SlowRefresh() time.Duration {
	return time.Duration(c.SlowRefreshSeconds * float64(time.Second))
}

// DatabaseConfig contains report-archive database settings.
type DatabaseConfig struct {
	// Enabled determines whether emitted reports are archived.
	Enabled bool `json:"enabled"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// APIConfig contains HTTP status API and live feed settings.
type APIConfig struct {
	// Enabled determines whether the HTTP API is served.
	Enabled bool `json:"enabled"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// Port is the HTTP server port (default: 8978)
	Port string `json:"port"`

	// JWTSecret enables bearer-token auth on the API when non-empty.
	JWTSecret string `json:"jwt_secret,omitempty"`

	// MaxFeedConnsPerIP limits concurrent live-feed connections per
	// client address.
	MaxFeedConnsPerIP int `json:"max_feed_conns_per_ip"`

	// FeedLinesPerSecond is the per-client line budget on the live feed;
	// clients over budget lose lines rather than lagging the feed.
	FeedLinesPerSecond float64 `json:"feed_lines_per_second"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Source:              "tcp",
			Host:                "localhost",
			Port:                30979,
			ReconnectMaxSeconds: 60.0,
		},
		Reporter: ReporterConfig{
			IntervalSeconds:    1.0,
			TimeoutSeconds:     300.0,
			SlowRefreshSeconds: 300.0,
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "uatfeed",
			Username:     "uatfeed",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		API: APIConfig{
			Enabled:            false,
			Host:               "0.0.0.0",
			Port:               "8978",
			MaxFeedConnsPerIP:  4,
			FeedLinesPerSecond: 200.0,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if host := os.Getenv("UATFEED_INPUT_HOST"); host != "" {
		c.Input.Host = host
	}
	if port := os.Getenv("UATFEED_API_PORT"); port != "" {
		c.API.Port = port
	}
	if secret := os.Getenv("UATFEED_API_SECRET"); secret != "" {
		c.API.JWTSecret = secret
	}
	if dbPassword := os.Getenv("UATFEED_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
}
