// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name       string
		electionID string
		salt       string
	}{
		{"standard", "election123", "secret-salt"},
		{"empty election id", "", "salt"},
		{"empty salt", "election456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.electionID, tt.salt)

			// Should not be empty
			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			key2 := GenerateAdminKey(tt.electionID, tt.salt)
			if key != key2 {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			// Different inputs should produce different keys
			if tt.electionID != "" && tt.salt != "" {
				differentKey := GenerateAdminKey(tt.electionID+"x", tt.salt)
				if key == differentKey {
					t.Error("GenerateAdminKey() produced same key for different election IDs")
				}
			}

			// Should be URL-safe (no padding)
			if strings.Contains(key, "=") {
				t.Error("GenerateAdminKey() contains padding characters")
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	electionID := "test-election-123"
	salt := "test-salt"
	validKey := GenerateAdminKey(electionID, salt)

	tests := []struct {
		name       string
		electionID string
		adminKey   string
		salt       string
		wantErr    bool
	}{
		{"valid key", electionID, validKey, salt, false},
		{"wrong key", electionID, "wrong-key", salt, true},
		{"wrong election id", "different-election", validKey, salt, true},
		{"wrong salt", electionID, validKey, "different-salt", true},
		{"empty key", electionID, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.electionID, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestGenerateSecretSlug(t *testing.T) {
	// Test basic generation
	slug, err := GenerateSecretSlug()
	if err != nil {
		t.Fatalf("GenerateSecretSlug() error = %v", err)
	}

	if slug == "" {
		t.Error("GenerateSecretSlug() returned empty string")
	}

	// Should be URL-safe (no padding)
	if strings.Contains(slug, "=") {
		t.Error("GenerateSecretSlug() contains padding characters")
	}

	// Should be reasonably long (24 bytes encoded)
	if len(slug) < 30 {
		t.Errorf("GenerateSecretSlug() too short: %d chars", len(slug))
	}

	// Test randomness - should not produce duplicates
	slugs := make(map[string]bool)
	for i := 0; i < 100; i++ {
		slug, err := GenerateSecretSlug()
		if err != nil {
			t.Fatalf("GenerateSecretSlug() error on iteration %d: %v", i, err)
		}
		if slugs[slug] {
			t.Errorf("GenerateSecretSlug() produced duplicate slug: %s", slug)
		}
		slugs[slug] = true
	}
}

// Benchmark tests
func BenchmarkGenerateAdminKey(b *testing.B) {
	electionID := "test-election-123"
	salt := "test-salt"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GenerateAdminKey(electionID, salt)
	}
}

func BenchmarkGenerateSecretSlug(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateSecretSlug()
	}
}
