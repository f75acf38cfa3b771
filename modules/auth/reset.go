package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/platefeed/platefeed/pkg/sanitizer"
	"github.com/platefeed/platefeed/pkg/validator"
)

// ResetRequest is the outcome of a successful reset request.
type ResetRequest struct {
	Email     string
	ExpiresAt time.Time
}

// RequestReset issues a password reset token for the account owning
// the email and mails it. Unlike the registration email the reset mail
// is sent synchronously: without it the user holds nothing, so a send
// failure fails the request.
//
// An unknown email returns ErrUserNotFound; the endpoint deliberately
// confirms which emails are registered.
func (s *Service) RequestReset(ctx context.Context, email string) (*ResetRequest, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
	); err != nil {
		return nil, err
	}

	user, err := s.store.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.resetTokenTTL)
	token, err := s.issueToken(user, s.resetTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, token); err != nil {
		return nil, fmt.Errorf("send reset email: %w", err)
	}

	return &ResetRequest{Email: user.Email, ExpiresAt: expiresAt}, nil
}

// CompleteReset validates the reset token and replaces the account's
// password. A token may be replayed until it expires; only expiry ends
// its validity.
func (s *Service) CompleteReset(ctx context.Context, tokenString, newPassword string) (*User, error) {
	if err := validator.Apply(
		validator.Required("password", newPassword),
		validator.MinLen("password", newPassword, 8),
		validator.Alphanumeric("password", newPassword),
	); err != nil {
		return nil, err
	}

	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetPasswordHash(ctx, claims.UserID, hash); err != nil {
		return nil, err
	}

	user, err := s.store.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}
