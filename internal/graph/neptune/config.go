// File path: internal/graph/neptune/config.go
package neptune

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures connection options for the Neptune SPARQL endpoint.
type Config struct {
	Endpoint       string        `json:"endpoint"`
	Port           int           `json:"port"`
	Region         string        `json:"region"`
	DisableSigning bool          `json:"disable_signing"`
	MaxConnections int           `json:"max_connections"`
	Timeout        time.Duration `json:"-"`
	TimeoutString  string        `json:"timeout"`

	AccessKey    string `json:"-"`
	SecretKey    string `json:"-"`
	SessionToken string `json:"-"`

	HTTPMaxIdleConns       int           `json:"http_max_idle_conns"`
	HTTPMaxIdlePerHost     int           `json:"http_max_idle_per_host"`
	HTTPMaxConnsPerHost    int           `json:"http_max_conns_per_host"`
	HTTPIdleConnTimeout    time.Duration `json:"-"`
	HTTPIdleConnTimeoutStr string        `json:"http_idle_conn_timeout"`
}

// Merge overlays non-zero values from the override into the receiver.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Endpoint) != "" {
		result.Endpoint = strings.TrimSpace(override.Endpoint)
	}
	if override.Port > 0 {
		result.Port = override.Port
	}
	if strings.TrimSpace(override.Region) != "" {
		result.Region = strings.TrimSpace(override.Region)
	}
	if override.DisableSigning {
		result.DisableSigning = true
	}
	if override.MaxConnections > 0 {
		result.MaxConnections = override.MaxConnections
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if strings.TrimSpace(override.TimeoutString) != "" {
		result.TimeoutString = strings.TrimSpace(override.TimeoutString)
	}
	if strings.TrimSpace(override.AccessKey) != "" {
		result.AccessKey = strings.TrimSpace(override.AccessKey)
	}
	if strings.TrimSpace(override.SecretKey) != "" {
		result.SecretKey = override.SecretKey
	}
	if strings.TrimSpace(override.SessionToken) != "" {
		result.SessionToken = override.SessionToken
	}
	if override.HTTPMaxIdleConns > 0 {
		result.HTTPMaxIdleConns = override.HTTPMaxIdleConns
	}
	if override.HTTPMaxIdlePerHost > 0 {
		result.HTTPMaxIdlePerHost = override.HTTPMaxIdlePerHost
	}
	if override.HTTPMaxConnsPerHost > 0 {
		result.HTTPMaxConnsPerHost = override.HTTPMaxConnsPerHost
	}
	if override.HTTPIdleConnTimeout > 0 {
		result.HTTPIdleConnTimeout = override.HTTPIdleConnTimeout
	}
	if strings.TrimSpace(override.HTTPIdleConnTimeoutStr) != "" {
		result.HTTPIdleConnTimeoutStr = strings.TrimSpace(override.HTTPIdleConnTimeoutStr)
	}
	return result
}

// LoadConfig reads configuration from NEPTUNE_CONFIG_FILE if present and then
// applies environment variable overrides.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("NEPTUNE_CONFIG_FILE")); path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

// Enabled reports whether an endpoint has been configured at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 8182
	}
	if strings.TrimSpace(c.Region) == "" {
		c.Region = "eu-west-1"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 8
	}
	if c.Timeout <= 0 {
		if c.TimeoutString != "" {
			if parsed, err := time.ParseDuration(c.TimeoutString); err == nil {
				c.Timeout = parsed
			}
		}
		if c.Timeout <= 0 {
			c.Timeout = 30 * time.Second
		}
	}
	if c.HTTPMaxIdleConns <= 0 {
		c.HTTPMaxIdleConns = c.MaxConnections * 2
	}
	if c.HTTPMaxIdlePerHost <= 0 {
		c.HTTPMaxIdlePerHost = c.MaxConnections
	}
	if c.HTTPIdleConnTimeout <= 0 {
		if c.HTTPIdleConnTimeoutStr != "" {
			if parsed, err := time.ParseDuration(c.HTTPIdleConnTimeoutStr); err == nil {
				c.HTTPIdleConnTimeout = parsed
			}
		}
		if c.HTTPIdleConnTimeout <= 0 {
			c.HTTPIdleConnTimeout = 90 * time.Second
		}
	}
}

func loadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read neptune config: %w", err)
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse neptune config: %w", err)
	}
	return fileCfg, nil
}

func loadFromEnv() (Config, error) {
	cfg := Config{}
	if endpoint := strings.TrimSpace(os.Getenv("NEPTUNE_ENDPOINT")); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if port := strings.TrimSpace(os.Getenv("NEPTUNE_PORT")); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("parse NEPTUNE_PORT: %w", err)
		}
		cfg.Port = value
	}
	if region := strings.TrimSpace(os.Getenv("NEPTUNE_REGION")); region != "" {
		cfg.Region = region
	}
	if raw := strings.TrimSpace(os.Getenv("NEPTUNE_DISABLE_SIGNING")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse NEPTUNE_DISABLE_SIGNING: %w", err)
		}
		cfg.DisableSigning = parsed
	}
	if timeout := strings.TrimSpace(os.Getenv("NEPTUNE_TIMEOUT")); timeout != "" {
		cfg.TimeoutString = timeout
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = parsed
		}
	}
	if max := strings.TrimSpace(os.Getenv("NEPTUNE_MAX_CONNECTIONS")); max != "" {
		value, err := strconv.Atoi(max)
		if err != nil {
			return Config{}, fmt.Errorf("parse NEPTUNE_MAX_CONNECTIONS: %w", err)
		}
		if value > 0 {
			cfg.MaxConnections = value
		}
	}
	cfg.AccessKey = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	cfg.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.SessionToken = os.Getenv("AWS_SESSION_TOKEN")
	if idleTimeout := strings.TrimSpace(os.Getenv("NEPTUNE_HTTP_IDLE_CONN_TIMEOUT")); idleTimeout != "" {
		cfg.HTTPIdleConnTimeoutStr = idleTimeout
		if parsed, err := time.ParseDuration(idleTimeout); err == nil {
			cfg.HTTPIdleConnTimeout = parsed
		}
	}
	return cfg, nil
}
