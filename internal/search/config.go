// File path: internal/search/config.go
package search

import (
	"os"
	"strings"
	"time"
)

// Config captures connection options for the Meilisearch instance backing
// tender listing and full-text search.
type Config struct {
	Host    string
	APIKey  string
	Index   string
	Timeout time.Duration

	HTTPMaxIdleConns    int
	HTTPMaxIdlePerHost  int
	HTTPMaxConnsPerHost int
	HTTPIdleConnTimeout time.Duration
}

// LoadConfig reads connection settings from the environment and applies
// defaults.
func LoadConfig() Config {
	cfg := Config{
		Host:   strings.TrimSpace(os.Getenv("MEILISEARCH_HOST")),
		APIKey: strings.TrimSpace(os.Getenv("MEILISEARCH_API_KEY")),
		Index:  strings.TrimSpace(os.Getenv("MEILISEARCH_INDEX")),
	}
	if raw := strings.TrimSpace(os.Getenv("MEILISEARCH_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			cfg.Timeout = parsed
		}
	}
	cfg.applyDefaults()
	return cfg
}

// Enabled reports whether a host has been configured at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

func (c *Config) applyDefaults() {
	if c.Index == "" {
		c.Index = "tenders"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.HTTPMaxIdleConns <= 0 {
		c.HTTPMaxIdleConns = 16
	}
	if c.HTTPMaxIdlePerHost <= 0 {
		c.HTTPMaxIdlePerHost = 8
	}
	if c.HTTPIdleConnTimeout <= 0 {
		c.HTTPIdleConnTimeout = 90 * time.Second
	}
}
