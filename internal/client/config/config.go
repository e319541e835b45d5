package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultServerURL      = "http://localhost:8000"
	defaultRequestTimeout = 10 * time.Second
)

// Config is what the CLI needs to reach the auth API.
type Config struct {
	// ServerURL is the API origin; the /api/v1 prefix is added per request.
	ServerURL      string
	RequestTimeout time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerURL = defaultServerURL
	c.RequestTimeout = defaultRequestTimeout
}

// Validate rejects a server URL that is not an absolute http(s) origin and a
// non-positive timeout. A trailing slash is dropped.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q: want http(s)://host[:port]", c.ServerURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	return nil
}

// LoadConfig layers defaults, environment, JSON file and flags, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
