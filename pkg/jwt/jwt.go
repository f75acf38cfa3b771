// Package jwt wraps HMAC-signed JWT issuance and verification behind a small
// service type holding the process-wide signing secret.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service signs and verifies HS256 JWTs. The signing key is loaded once at
// startup and read-only afterwards; the service is safe for concurrent use.
type Service struct {
	signingKey []byte
}

// New creates a JWT service with the provided signing key.
// The key should be at least 32 bytes for adequate security with HMAC-SHA256.
func New(signingKey []byte) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &Service{signingKey: signingKey}, nil
}

// NewFromString creates a JWT service from a string signing key.
func NewFromString(signingKey string) (*Service, error) {
	return New([]byte(signingKey))
}

// Generate signs the given claims and returns the compact token string.
// Callers are expected to set expiry on the claims themselves; the service
// has no notion of token kind.
func (s *Service) Generate(claims jwt.Claims) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Parse verifies a token and unmarshals its claims into the provided
// structure. Every failure mode (malformed token, wrong signature, wrong
// algorithm, expired, not yet valid) collapses into ErrInvalidToken so
// callers cannot accidentally tell an attacker why a token was rejected.
func (s *Service) Parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.Join(ErrInvalidToken, ErrExpiredToken)
		}
		return errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// NumericDate converts a time into the JWT numeric date representation.
// Convenience re-export so callers don't import golang-jwt directly just to
// build expiry claims.
func NumericDate(t time.Time) *jwt.NumericDate {
	return jwt.NewNumericDate(t)
}
