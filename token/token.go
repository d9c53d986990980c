// Package token produces the opaque strings that identify individual
// logins. The default generator covers the configured styles; anything
// satisfying Generator can be swapped in through the manager builder.
package token

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator creates a new opaque token per call. Implementations must
// be safe for concurrent use and return values unguessable to clients.
type Generator interface {
	CreateToken() (string, error)
}

// Style selects the output shape of the default generator.
type Style string

const (
	// StyleUUID is a canonical 36-character dashed identifier. Default.
	StyleUUID Style = "uuid"
	// StyleUUIDNoDash is a uuid with the dashes stripped, 32 characters.
	StyleUUIDNoDash Style = "uuid-no-dash"
	// StyleRandom32 is a 32-character random alphabetic string.
	StyleRandom32 Style = "random-32"
	// StyleRandom64 is a 64-character random alphabetic string.
	StyleRandom64 Style = "random-64"
	// StyleRandom128 is a 128-character random alphabetic string.
	StyleRandom128 Style = "random-128"
)

// DefaultGenerator implements the built-in styles.
type DefaultGenerator struct {
	style Style
}

var _ Generator = (*DefaultGenerator)(nil)

// NewGenerator builds a generator for style. Unknown or empty styles fall
// back to StyleUUID.
func NewGenerator(style Style) *DefaultGenerator {
	return &DefaultGenerator{style: style}
}

// CreateToken implements Generator.
func (g *DefaultGenerator) CreateToken() (string, error) {
	switch g.style {
	case StyleUUIDNoDash:
		return strings.ReplaceAll(uuid.NewString(), "-", ""), nil
	case StyleRandom32:
		return randomAlphabetic(32)
	case StyleRandom64:
		return randomAlphabetic(64)
	case StyleRandom128:
		return randomAlphabetic(128)
	default:
		return uuid.NewString(), nil
	}
}

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func randomAlphabetic(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
