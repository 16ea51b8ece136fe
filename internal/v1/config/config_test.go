package config

import (
	"os"
	"strings"
	"testing"
)

// setupTestEnv sets up environment variables for testing
func setupTestEnv(t *testing.T) func() {
	origVars := map[string]string{
		"PORT":                   os.Getenv("PORT"),
		"CATALOG_PATH":           os.Getenv("CATALOG_PATH"),
		"GO_ENV":                 os.Getenv("GO_ENV"),
		"LOG_LEVEL":              os.Getenv("LOG_LEVEL"),
		"TRACING_COLLECTOR_ADDR": os.Getenv("TRACING_COLLECTOR_ADDR"),
		"FAST_START":             os.Getenv("FAST_START"),
	}

	os.Unsetenv("PORT")
	os.Unsetenv("CATALOG_PATH")
	os.Unsetenv("GO_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("TRACING_COLLECTOR_ADDR")
	os.Unsetenv("FAST_START")

	return func() {
		for key, val := range origVars {
			if val != "" {
				os.Setenv(key, val)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}

func TestValidateEnv_ValidConfiguration(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("CATALOG_PATH", "testdata/catalog.json")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected PORT to be '8080', got '%s'", cfg.Port)
	}
	if cfg.CatalogPath != "testdata/catalog.json" {
		t.Errorf("Expected CATALOG_PATH to be set correctly, got '%s'", cfg.CatalogPath)
	}
	if cfg.GoEnv != "production" {
		t.Errorf("Expected GO_ENV to default to 'production', got '%s'", cfg.GoEnv)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LOG_LEVEL to default to 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.FastStart {
		t.Errorf("Expected FAST_START to default to false")
	}
}

func TestValidateEnv_MissingPort(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("CATALOG_PATH", "testdata/catalog.json")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("Expected error for missing PORT, got nil")
	}
	if !strings.Contains(err.Error(), "PORT is required") {
		t.Errorf("Expected error message about PORT, got: %v", err)
	}
}

func TestValidateEnv_InvalidPort(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "99999")
	os.Setenv("CATALOG_PATH", "testdata/catalog.json")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("Expected error for invalid PORT, got nil")
	}
	if !strings.Contains(err.Error(), "PORT must be a valid port number") {
		t.Errorf("Expected error message about invalid PORT, got: %v", err)
	}
}

func TestValidateEnv_MissingCatalogPath(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("Expected error for missing CATALOG_PATH, got nil")
	}
	if !strings.Contains(err.Error(), "CATALOG_PATH is required") {
		t.Errorf("Expected error message about CATALOG_PATH, got: %v", err)
	}
}

func TestValidateEnv_InvalidTracingCollectorAddr(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("CATALOG_PATH", "testdata/catalog.json")
	os.Setenv("TRACING_COLLECTOR_ADDR", "no-port-here")

	_, err := ValidateEnv()
	if err == nil {
		t.Fatal("Expected error for invalid TRACING_COLLECTOR_ADDR, got nil")
	}
	if !strings.Contains(err.Error(), "TRACING_COLLECTOR_ADDR must be in format 'host:port'") {
		t.Errorf("Expected error message about TRACING_COLLECTOR_ADDR format, got: %v", err)
	}
}

func TestValidateEnv_OptionalDefaults(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("CATALOG_PATH", "testdata/catalog.json")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.GoEnv != "production" {
		t.Errorf("Expected GO_ENV to default to 'production', got '%s'", cfg.GoEnv)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LOG_LEVEL to default to 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.RateLimitWsMessage != "10-S" {
		t.Errorf("Expected RATE_LIMIT_WS_MESSAGE to default to '10-S', got '%s'", cfg.RateLimitWsMessage)
	}
}

func TestValidateEnv_FastStartFlag(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("PORT", "8080")
	os.Setenv("CATALOG_PATH", "testdata/catalog.json")
	os.Setenv("FAST_START", "true")

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !cfg.FastStart {
		t.Errorf("Expected FAST_START to be true")
	}
}

func TestIsValidHostPort(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected bool
	}{
		{"Valid localhost", "localhost:8080", true},
		{"Valid IP", "127.0.0.1:3000", true},
		{"Valid hostname", "example.com:443", true},
		{"Missing port", "localhost", false},
		{"Missing host", ":8080", false},
		{"Invalid port", "localhost:99999", false},
		{"Non-numeric port", "localhost:abc", false},
		{"Multiple colons", "localhost:8080:9090", false},
		{"Empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isValidHostPort(tt.addr)
			if result != tt.expected {
				t.Errorf("isValidHostPort('%s') = %v, expected %v", tt.addr, result, tt.expected)
			}
		})
	}
}
