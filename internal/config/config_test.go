package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
		{"uses default for non-positive", "TEST_INT_4", "-3", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestLoad_GeminiKeyIsMandatory(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/coursenova")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when GEMINI_API_KEY is missing")
		}
	}()

	Load()
}

func TestLoad_EnrichmentDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/coursenova")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("NEWS_API_KEY", "")
	t.Setenv("GOOGLE_SEARCH_CX", "")
	t.Setenv("ENRICHMENT_TIMEOUT_SECONDS", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("DB_MIN_CONNS", "")

	cfg := Load()

	if cfg.EnrichmentTimeout != 5*time.Second {
		t.Errorf("Expected 5s enrichment timeout, got %s", cfg.EnrichmentTimeout)
	}
	if cfg.NewsAPIKey != "" {
		t.Errorf("Expected empty news key, got %q", cfg.NewsAPIKey)
	}
	if cfg.ImageSearchEnabled() {
		t.Error("Expected image search to be disabled without a search engine id")
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 2 {
		t.Errorf("Expected default pool bounds 20/2, got %d/%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("Expected default model, got %q", cfg.GeminiModel)
	}
}
