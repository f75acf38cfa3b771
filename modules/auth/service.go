package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/platefeed/platefeed/pkg/jwt"
	"github.com/platefeed/platefeed/pkg/logger"
	"github.com/platefeed/platefeed/pkg/sanitizer"
	"github.com/platefeed/platefeed/pkg/validator"
)

const (
	defaultAccessTokenTTL = 168 * time.Hour
	defaultVerifyTokenTTL = 24 * time.Hour
	defaultResetTokenTTL  = time.Hour
	defaultMailWait       = 2 * time.Second

	// Hard ceiling for a mail send that outlives the request.
	mailSendTimeout = 10 * time.Second
)

// Service implements registration, login, email verification and
// password reset on top of a Store.
type Service struct {
	store  Store
	tokens *jwt.Service
	hasher *Hasher
	mailer *Mailer
	log    *slog.Logger

	accessTokenTTL time.Duration
	verifyTokenTTL time.Duration
	resetTokenTTL  time.Duration
	mailWait       time.Duration
}

type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithHasher replaces the default bcrypt hasher, mainly to lower the
// cost in tests.
func WithHasher(h *Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithAccessTokenTTL sets the lifetime of access tokens.
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.accessTokenTTL = ttl }
}

// WithVerifyTokenTTL sets the lifetime of email verification tokens.
func WithVerifyTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.verifyTokenTTL = ttl }
}

// WithResetTokenTTL sets the lifetime of password reset tokens.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.resetTokenTTL = ttl }
}

// WithMailWait bounds how long Register waits for the verification
// email before reporting it as not sent.
func WithMailWait(d time.Duration) Option {
	return func(s *Service) { s.mailWait = d }
}

// NewService creates the authentication service. The mailer may be
// built on any EmailSender; see NewMailer.
func NewService(store Store, tokens *jwt.Service, mailer *Mailer, opts ...Option) *Service {
	s := &Service{
		store:          store,
		tokens:         tokens,
		hasher:         NewHasher(0),
		mailer:         mailer,
		log:            logger.Noop(),
		accessTokenTTL: defaultAccessTokenTTL,
		verifyTokenTTL: defaultVerifyTokenTTL,
		resetTokenTTL:  defaultResetTokenTTL,
		mailWait:       defaultMailWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// issueToken signs a JWT for the user with the given lifetime.
func (s *Service) issueToken(u *User, ttl time.Duration) (string, error) {
	now := time.Now()
	return s.tokens.Generate(Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwt.NumericDate(now),
			ExpiresAt: jwt.NumericDate(now.Add(ttl)),
		},
	})
}

// parseToken validates a token string and returns its claims. Every
// failure collapses into ErrInvalidToken so callers cannot distinguish
// expiry from tampering.
func (s *Service) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := s.tokens.Parse(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RegistrationResult is what a successful registration produces. The
// token is an access token; EmailSent reports whether the verification
// email was confirmed sent within the configured wait.
type RegistrationResult struct {
	User      *User
	Token     string
	EmailSent bool
}

// Register creates a new account, issues an access token and sends a
// verification email. The email send is best effort: a failure or a
// slow provider does not fail the registration.
func (s *Service) Register(ctx context.Context, username, email, password string) (*RegistrationResult, error) {
	username = sanitizer.Trim(username)
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("username", username),
		validator.MinLen("username", username, 3),
		validator.MaxLen("username", username, 20),
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.Required("password", password),
		validator.MinLen("password", password, 8),
		validator.Alphanumeric("password", password),
	); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Create(ctx, NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issueToken(user, s.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	verifyToken, err := s.issueToken(user, s.verifyTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue verification token: %w", err)
	}

	emailSent := s.sendVerificationBounded(user, verifyToken)

	return &RegistrationResult{
		User:      user.Sanitized(),
		Token:     accessToken,
		EmailSent: emailSent,
	}, nil
}

// sendVerificationBounded dispatches the verification email and waits
// up to mailWait for the result. A send still in flight after the wait
// is reported as not sent; its eventual outcome is logged.
func (s *Service) sendVerificationBounded(user *User, verifyToken string) bool {
	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()
		done <- s.mailer.SendVerification(ctx, user.Email, user.Username, verifyToken)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Error("verification email failed",
				logger.UserID(user.ID),
				logger.Email(user.Email),
				logger.Error(err),
				logger.Component("auth"),
			)
			return false
		}
		return true
	case <-time.After(s.mailWait):
		go func() {
			if err := <-done; err != nil {
				s.log.Error("verification email failed after wait",
					logger.UserID(user.ID),
					logger.Email(user.Email),
					logger.Error(err),
					logger.Component("auth"),
				)
			} else {
				s.log.Info("verification email sent after wait",
					logger.UserID(user.ID),
					logger.Component("auth"),
				)
			}
		}()
		return false
	}
}

// LoginResult pairs the authenticated user with a fresh access token.
type LoginResult struct {
	User  *User
	Token string
}

// Login verifies the credentials and issues an access token. Any
// failure, unknown email, social-only account or wrong password,
// returns ErrInvalidCredentials to prevent account enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.store.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user, s.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &LoginResult{User: user.Sanitized(), Token: token}, nil
}

// VerifyEmail marks the token's account as verified. Verifying an
// already verified account succeeds again with the same result.
func (s *Service) VerifyEmail(ctx context.Context, tokenString string) (*User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.SetVerified(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}

	user, err := s.store.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// Profile returns the account by ID with the password hash stripped.
func (s *Service) Profile(ctx context.Context, id int64) (*User, error) {
	user, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// ProfileUpdate carries the optional fields of a profile change.
type ProfileUpdate struct {
	Username *string
	Bio      *string
	Image    *string
}

// UpdateProfile applies a partial profile change.
func (s *Service) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error) {
	var rules []validator.Rule
	if upd.Username != nil {
		trimmed := sanitizer.Trim(*upd.Username)
		upd.Username = &trimmed
		rules = append(rules,
			validator.Required("username", trimmed),
			validator.MinLen("username", trimmed, 3),
			validator.MaxLen("username", trimmed, 20),
		)
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}

	user, err := s.store.Update(ctx, id, Patch{
		Username: upd.Username,
		Bio:      upd.Bio,
		Image:    upd.Image,
	})
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}
