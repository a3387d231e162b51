// Package config provides configuration loading for tekstitv using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"tekstitv/fetch"
	"tekstitv/page"
)

// Fetch settings
type Fetch struct {
	BaseURL    string `toml:"base_url"`
	TimeoutMs  int    `toml:"timeout_ms"`
	RetryCount int    `toml:"retry_count"`
	UserAgent  string `toml:"user_agent"`
}

// Cache settings
type Cache struct {
	TTLSeconds int `toml:"ttl_seconds"`
	MaxPages   int `toml:"max_pages"`
}

// Grid settings; fixed for the lifetime of the process.
type Grid struct {
	Rows int `toml:"rows"`
	Cols int `toml:"cols"`
}

// Config is the main configuration struct
type Config struct {
	Fetch Fetch `toml:"fetch"`
	Cache Cache `toml:"cache"`
	Grid  Grid  `toml:"grid"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Fetch: Fetch{
			BaseURL:    fetch.DefaultBaseURL,
			TimeoutMs:  5000,
			RetryCount: 2,
			UserAgent:  "tekstitv/1.0 (teletext viewer)",
		},
		Cache: Cache{
			TTLSeconds: 300,
			MaxPages:   64,
		},
		Grid: Grid{
			Rows: page.DefaultDimensions.Rows,
			Cols: page.DefaultDimensions.Cols,
		},
	}
}

// Timeout returns the fetch timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutMs) * time.Millisecond
}

// TTL returns the cache time-to-live as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Dimensions returns the configured grid geometry.
func (c *Config) Dimensions() page.Dimensions {
	return page.Dimensions{Rows: c.Grid.Rows, Cols: c.Grid.Cols}
}

// Path returns the config file location (~/.config/tekstitv/config.toml).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tekstitv", "config.toml"), nil
}

// Load reads the config file, falling back to defaults when the file
// does not exist. Keys absent from the file keep their defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from a specific path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
