package services

import (
	"context"
	"errors"
	"testing"
)

func TestSearchNearby_DisabledWithoutKey(t *testing.T) {
	svc := NewPlacesService("")

	_, err := svc.SearchNearby(context.Background(), 52.37, 4.89, 5000, "")
	if !errors.Is(err, ErrPlacesDisabled) {
		t.Errorf("Expected ErrPlacesDisabled, got %v", err)
	}
}

func TestValidCategory(t *testing.T) {
	tests := []struct {
		category string
		expected bool
	}{
		{"art_gallery", true},
		{"museum", true},
		{"library", true},
		{"casino", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := ValidCategory(tc.category); got != tc.expected {
			t.Errorf("ValidCategory(%q) = %v, expected %v", tc.category, got, tc.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected %q, got %q", "short", got)
	}
	if got := truncate("a very long error body from upstream", 10); got != "a very lon..." {
		t.Errorf("Unexpected truncation: %q", got)
	}
}
