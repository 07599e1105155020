package security

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// CSRFGuard holds the anti-forgery token of one agent run.
// Web pages the user visits can send requests to the loopback agent but
// cannot read its responses, so only real local clients learn the token.
type CSRFGuard struct {
	token string
}

// NewCSRFGuard creates a guard with a fresh 256-bit random token
func NewCSRFGuard() (*CSRFGuard, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}
	return &CSRFGuard{token: hex.EncodeToString(randomBytes)}, nil
}

// Token returns the token clients must echo back
func (g *CSRFGuard) Token() string {
	return g.token
}

// Valid reports whether submitted matches the token, in constant time
func (g *CSRFGuard) Valid(submitted string) bool {
	if submitted == "" {
		return false
	}
	return hmac.Equal([]byte(g.token), []byte(submitted))
}
