package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTGenerator signs each token as an HS256 compact JWT carrying a random
// jti. The core still treats the result as an opaque string, with sessions
// and expiry living in the store rather than the claims, but hosts fronting
// several services can verify provenance offline before hitting the manager.
type JWTGenerator struct {
	secret []byte
	issuer string
}

var _ Generator = (*JWTGenerator)(nil)

// NewJWTGenerator builds a signed-token generator. The secret must not be
// empty; the issuer lands in the iss claim and may be empty.
func NewJWTGenerator(secret []byte, issuer string) (*JWTGenerator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt token generator requires a signing secret")
	}
	return &JWTGenerator{secret: secret, issuer: issuer}, nil
}

// CreateToken implements Generator.
func (g *JWTGenerator) CreateToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:       uuid.NewString(),
		Issuer:   g.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks that raw was produced by a generator holding the same
// secret and returns its jti. Expiry is not checked here; the store owns
// token lifetime.
func (g *JWTGenerator) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	return claims.ID, nil
}
