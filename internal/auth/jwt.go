package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsDecoder extracts the claims of a JWT.
type ClaimsDecoder interface {
	Decode(token string) (jwt.MapClaims, error)
}

// UnverifiedDecoder decodes JWT claims without verifying the signature.
// Only use it on tokens received directly from a trusted endpoint.
type UnverifiedDecoder struct {
	parser *jwt.Parser
}

// NewUnverifiedDecoder creates an UnverifiedDecoder.
func NewUnverifiedDecoder() *UnverifiedDecoder {
	return &UnverifiedDecoder{parser: jwt.NewParser()}
}

// Decode implements ClaimsDecoder.
func (d *UnverifiedDecoder) Decode(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse jwt: %w", err)
	}
	return claims, nil
}
