package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("REFYN_TEST_STR", "from-env")

	if got := getEnvOrDefault("REFYN_TEST_STR", "fallback"); got != "from-env" {
		t.Errorf("Expected env value, got %q", got)
	}
	if got := getEnvOrDefault("REFYN_TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		expected int
	}{
		{"numeric value", "42", 10, 42},
		{"empty value", "", 10, 10},
		{"garbage value", "not-a-number", 10, 10},
		{"negative value", "-3", 10, -3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("REFYN_TEST_INT", tc.value)
			} else {
				os.Unsetenv("REFYN_TEST_INT")
			}

			if got := getEnvAsIntOrDefault("REFYN_TEST_INT", tc.fallback); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestMustGetEnv(t *testing.T) {
	t.Setenv("REFYN_TEST_REQUIRED", "secret")
	if got := mustGetEnv("REFYN_TEST_REQUIRED"); got != "secret" {
		t.Errorf("Expected %q, got %q", "secret", got)
	}

	os.Unsetenv("REFYN_TEST_REQUIRED")
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()
	mustGetEnv("REFYN_TEST_REQUIRED")
}
