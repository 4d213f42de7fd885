package api

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultServer is where the Placify service listens in development.
const DefaultServer = "http://localhost:5000"

// Config holds the gateway configuration.
type Config struct {
	// Server is the base URL of the Placify service.
	Server string

	// Timeout bounds a single call. Zero means no timeout.
	Timeout time.Duration

	// Version is reported in the User-Agent header.
	Version string
}

// DefaultConfig returns a Config pointing at the development server.
func DefaultConfig() Config {
	return Config{
		Server:  DefaultServer,
		Version: "dev",
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if s := os.Getenv("PLACIFY_SERVER"); s != "" {
		cfg.Server = s
	}
	if t := os.Getenv("PLACIFY_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring PLACIFY_TIMEOUT %q: %v\n", t, err)
		}
	}

	return cfg
}

// Validate checks that the server URL is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", c.Server, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL %q must use http or https", c.Server)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL %q has no host", c.Server)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// BaseURL returns the server URL without a trailing slash.
func (c Config) BaseURL() string {
	return strings.TrimRight(c.Server, "/")
}

// Host returns the host[:port] of the server, used to key stored cookies.
func (c Config) Host() string {
	u, err := url.Parse(c.Server)
	if err != nil {
		return c.Server
	}
	return u.Host
}
