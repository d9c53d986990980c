package token

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGeneratorStyles(t *testing.T) {
	tests := []struct {
		style  Style
		length int
	}{
		{StyleUUID, 36},
		{StyleUUIDNoDash, 32},
		{StyleRandom32, 32},
		{StyleRandom64, 64},
		{StyleRandom128, 128},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			g := NewGenerator(tt.style)
			tok, err := g.CreateToken()
			if err != nil {
				t.Fatalf("CreateToken failed: %v", err)
			}
			if len(tok) != tt.length {
				t.Fatalf("token length = %d, want %d", len(tok), tt.length)
			}
		})
	}
}

func TestGeneratorUUIDStyle(t *testing.T) {
	tok, err := NewGenerator(StyleUUID).CreateToken()
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := uuid.Parse(tok); err != nil {
		t.Fatalf("token %q is not a valid uuid: %v", tok, err)
	}

	noDash, err := NewGenerator(StyleUUIDNoDash).CreateToken()
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if strings.Contains(noDash, "-") {
		t.Fatalf("token %q still contains dashes", noDash)
	}
}

func TestGeneratorRandomAlphabetic(t *testing.T) {
	tok, err := NewGenerator(StyleRandom64).CreateToken()
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	for _, r := range tok {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			t.Fatalf("token %q contains non-alphabetic rune %q", tok, r)
		}
	}
}

func TestGeneratorUnknownStyleFallsBack(t *testing.T) {
	tok, err := NewGenerator(Style("nonsense")).CreateToken()
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := uuid.Parse(tok); err != nil {
		t.Fatalf("fallback token %q is not a uuid: %v", tok, err)
	}
}

func TestGeneratorUniqueness(t *testing.T) {
	g := NewGenerator(StyleRandom32)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := g.CreateToken()
		if err != nil {
			t.Fatalf("CreateToken failed: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}
