package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Reconstruct     bool
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("GRAPHICAL_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: GRAPHICAL_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("GRAPHICAL_LOG_LEVEL", ""),
		"Log level override: debug, info, warn, error (env: GRAPHICAL_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("GRAPHICAL_LOG_FORMAT", ""),
		"Log format override: json, text (env: GRAPHICAL_LOG_FORMAT)")

	flag.BoolVar(&cfg.Reconstruct, "reconstruct",
		getEnvBool("GRAPHICAL_RECONSTRUCT", false),
		"Synthesize an event log for existing repository content and exit (env: GRAPHICAL_RECONSTRUCT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("GRAPHICAL_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Graceful shutdown timeout (env: GRAPHICAL_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printDetailedHelp
	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	switch cfg.LogFormat {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - RDF workspace event core

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run with custom config
  %s --config=/etc/graphical/config.json

  # One-time event log reconstruction for an existing repository
  %s --config=/etc/graphical/config.json --reconstruct

  # Validate configuration only
  %s --config=/etc/graphical/config.json --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
