// Package config loads and validates the application configuration
// from a JSON file with environment variable overrides.
package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

// Config represents the complete application configuration.
type Config struct {
	Repository RepositoryConfig `json:"repository"`
	NATS       NATSConfig       `json:"nats"`
	HTTP       HTTPConfig       `json:"http"`
	Log        LogConfig        `json:"log"`
}

// RepositoryConfig defines the RDF repository connection.
type RepositoryConfig struct {
	// Endpoint is the full repository URI, e.g.
	// http://localhost:8080/rdf4j-server/repositories/workspace
	Endpoint string `json:"endpoint"`
	// Prefixes extends the built-in prefix table. Built-in prefixes
	// (pxio, rdf, rdfs, owl, xsd) cannot be overridden.
	Prefixes map[string]string `json:"prefixes,omitempty"`
	// Timeout bounds each HTTP request to the repository.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// NATSConfig defines NATS connection settings. Leaving URL empty
// disables the out-of-process notification forwarder.
type NATSConfig struct {
	URL           string        `json:"url,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
}

// HTTPConfig defines the gateway listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// LogConfig defines logging behavior.
type LogConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // json, text
}

// Default returns a configuration with usable defaults for local
// development.
func Default() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Endpoint: "http://localhost:8080/rdf4j-server/repositories/workspace",
			Timeout:  30 * time.Second,
		},
		HTTP: HTTPConfig{Addr: ":8090"},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from path, applies environment overrides and
// validates the result. An empty path yields the defaults plus
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "config", "Load", "read "+path)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse "+path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays GRAPHICAL_* environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("GRAPHICAL_REPOSITORY_ENDPOINT"); v != "" {
		c.Repository.Endpoint = v
	}
	if v := os.Getenv("GRAPHICAL_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("GRAPHICAL_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("GRAPHICAL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GRAPHICAL_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// Validate checks the configuration for completeness and consistency.
func (c *Config) Validate() error {
	if c.Repository.Endpoint == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "repository.endpoint is required")
	}
	if !strings.HasPrefix(c.Repository.Endpoint, "http://") &&
		!strings.HasPrefix(c.Repository.Endpoint, "https://") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"repository.endpoint must be an http(s) URI")
	}
	if c.Repository.Timeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"repository.timeout must not be negative")
	}

	builtin := vocabulary.Prefixes()
	for prefix := range c.Repository.Prefixes {
		if _, reserved := builtin[prefix]; reserved {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"repository.prefixes must not override built-in prefix "+prefix)
		}
	}

	if c.HTTP.Addr == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "http.addr is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"log.format must be json or text")
	}

	return nil
}

// PrefixTable merges the built-in vocabulary prefixes with any extras
// from the config. This is the table the term codec is built from.
func (c *Config) PrefixTable() map[string]string {
	table := vocabulary.Prefixes()
	for prefix, ns := range c.Repository.Prefixes {
		table[prefix] = ns
	}
	return table
}
