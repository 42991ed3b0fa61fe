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

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/viralib_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("GeminiModel = %q, want gemini-2.0-flash", cfg.GeminiModel)
	}
	if cfg.UploadPollEvery != 3*time.Second {
		t.Errorf("UploadPollEvery = %s, want 3s", cfg.UploadPollEvery)
	}
	if cfg.UploadPollRetries != 20 {
		t.Errorf("UploadPollRetries = %d, want 20", cfg.UploadPollRetries)
	}
	if cfg.MaxVideoBytes != 100*1024*1024 {
		t.Errorf("MaxVideoBytes = %d, want 100MB", cfg.MaxVideoBytes)
	}
	if cfg.AnalysisCacheTTL != 24*time.Hour {
		t.Errorf("AnalysisCacheTTL = %s, want 24h", cfg.AnalysisCacheTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/viralib_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("UPLOAD_POLL_SECONDS", "1")
	t.Setenv("UPLOAD_POLL_MAX_ATTEMPTS", "5")
	t.Setenv("MAX_VIDEO_MB", "10")

	cfg := Load()

	if cfg.UploadPollEvery != time.Second {
		t.Errorf("UploadPollEvery = %s, want 1s", cfg.UploadPollEvery)
	}
	if cfg.UploadPollRetries != 5 {
		t.Errorf("UploadPollRetries = %d, want 5", cfg.UploadPollRetries)
	}
	if cfg.MaxVideoBytes != 10*1024*1024 {
		t.Errorf("MaxVideoBytes = %d, want 10MB", cfg.MaxVideoBytes)
	}
}
