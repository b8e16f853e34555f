// File path: internal/store/config.go
package store

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds SQLite connection settings for the relational sidecar that
// keeps everything the graph does not: AI summaries, user tracking,
// downloaded document records.
type Config struct {
	Path string

	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
}

// LoadConfig reads settings from the environment and applies defaults.
func LoadConfig() Config {
	cfg := Config{
		Path: strings.TrimSpace(os.Getenv("SQLITE_PATH")),
	}
	if raw := strings.TrimSpace(os.Getenv("SQLITE_MAX_OPEN_CONNS")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxOpenConns = value
		}
	}
	if raw := strings.TrimSpace(os.Getenv("SQLITE_BUSY_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			cfg.BusyTimeout = parsed
		}
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Path) == "" {
		c.Path = "gober.db"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 8
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
}
