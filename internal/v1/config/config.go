// Package config validates and exposes the environment configuration for
// the session server.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds validated environment configuration.
type Config struct {
	// Required variables
	Port        string
	CatalogPath string

	// Optional variables with defaults
	GoEnv    string
	LogLevel string

	AllowedOrigins string

	// Debug / testing flags
	FastStart bool // wires the §4.4 CanStartGame short-circuit; off by default

	// Rate limits (ulule/limiter formatted rates, e.g. "10-S")
	RateLimitWsConnect string
	RateLimitWsMessage string

	// Optional OTLP/gRPC collector address; tracing is a no-op when empty.
	TracingCollectorAddr string
}

// ValidateEnv validates all required environment variables and returns a
// Config object. Returns an error if any required variable is missing or
// invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errors []string

	// Required: PORT (valid port number)
	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		errors = append(errors, "PORT is required")
	} else {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
		}
	}

	// Required: CATALOG_PATH (path to the card template file)
	cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	if cfg.CatalogPath == "" {
		errors = append(errors, "CATALOG_PATH is required")
	}

	// Optional: GO_ENV (defaults to "production")
	cfg.GoEnv = os.Getenv("GO_ENV")
	if cfg.GoEnv == "" {
		cfg.GoEnv = "production"
	}

	// Optional: LOG_LEVEL (defaults to "info")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.FastStart = os.Getenv("FAST_START") == "true"

	cfg.TracingCollectorAddr = os.Getenv("TRACING_COLLECTOR_ADDR")
	if cfg.TracingCollectorAddr != "" && !isValidHostPort(cfg.TracingCollectorAddr) {
		errors = append(errors, fmt.Sprintf("TRACING_COLLECTOR_ADDR must be in format 'host:port' (got '%s')", cfg.TracingCollectorAddr))
	}

	cfg.RateLimitWsConnect = getEnvOrDefault("RATE_LIMIT_WS_CONNECT", "20-M")
	cfg.RateLimitWsMessage = getEnvOrDefault("RATE_LIMIT_WS_MESSAGE", "10-S")

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	logValidatedConfig(cfg)

	return cfg, nil
}

// logValidatedConfig logs the validated configuration.
func logValidatedConfig(cfg *Config) {
	slog.Info("environment configuration validated successfully")
	slog.Info("configuration",
		"port", cfg.Port,
		"catalog_path", cfg.CatalogPath,
		"go_env", cfg.GoEnv,
		"log_level", cfg.LogLevel,
		"fast_start", cfg.FastStart,
		"rate_limit_ws_connect", cfg.RateLimitWsConnect,
		"rate_limit_ws_message", cfg.RateLimitWsMessage,
	)
}

// getEnvOrDefault returns the value of the environment variable or a default
// value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// isValidHostPort checks if a string is in the format "host:port". Kept for
// validating the optional tracing collector address.
func isValidHostPort(addr string) bool {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return false
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return false
	}

	if parts[0] == "" {
		return false
	}

	return true
}
