package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/platefeed/modules/auth"
	"github.com/platefeed/platefeed/pkg/validator"
)

func TestService_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates unverified account with access token", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		result, err := env.svc.Register(ctx, "gordon", "gordon@example.com", "secretpass1")
		require.NoError(t, err)

		assert.Positive(t, result.User.ID)
		assert.Equal(t, "gordon", result.User.Username)
		assert.Equal(t, "gordon@example.com", result.User.Email)
		assert.False(t, result.User.Verified)
		assert.Equal(t, auth.ProviderNone, result.User.SocialProvider)
		assert.Empty(t, result.User.PasswordHash)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("sends verification email with link", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		result, err := env.svc.Register(ctx, "julia", "julia@example.com", "secretpass1")
		require.NoError(t, err)
		assert.True(t, result.EmailSent)

		require.Equal(t, 1, env.sender.count())
		sent := env.sender.last()
		assert.Equal(t, "julia@example.com", sent.SendTo)
		assert.Contains(t, sent.BodyHTML, "https://platefeed.test/users/verify?token=")
	})

	t.Run("mail failure does not fail registration", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()
		env.sender.err = errSendFailed

		result, err := env.svc.Register(ctx, "jacques", "jacques@example.com", "secretpass1")
		require.NoError(t, err)
		assert.False(t, result.EmailSent)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("slow mail reports not sent within wait", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(auth.WithMailWait(50 * time.Millisecond))
		env.sender.delay = 2 * time.Second

		result, err := env.svc.Register(ctx, "slowpoke", "slow@example.com", "secretpass1")
		require.NoError(t, err)
		assert.False(t, result.EmailSent)
	})

	t.Run("normalizes email before storing", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		result, err := env.svc.Register(ctx, "norm", "  Norm@Example.COM ", "secretpass1")
		require.NoError(t, err)
		assert.Equal(t, "norm@example.com", result.User.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		_, err := env.svc.Register(ctx, "first", "dup@example.com", "secretpass1")
		require.NoError(t, err)

		_, err = env.svc.Register(ctx, "second", "dup@example.com", "secretpass1")
		dup, ok := auth.IsDuplicateError(err)
		require.True(t, ok)
		assert.Equal(t, "email", dup.Field)
		assert.EqualError(t, err, "email already exists")
	})

	t.Run("duplicate username", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		_, err := env.svc.Register(ctx, "taken", "one@example.com", "secretpass1")
		require.NoError(t, err)

		_, err = env.svc.Register(ctx, "taken", "two@example.com", "secretpass1")
		dup, ok := auth.IsDuplicateError(err)
		require.True(t, ok)
		assert.Equal(t, "username", dup.Field)
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		cases := []struct {
			name     string
			username string
			email    string
			password string
			field    string
		}{
			{"short username", "ab", "a@b.co", "secretpass1", "username"},
			{"long username", strings.Repeat("x", 21), "a@b.co", "secretpass1", "username"},
			{"bad email", "valid", "not-an-email", "secretpass1", "email"},
			{"short password", "valid", "a@b.co", "short1", "password"},
			{"symbol password", "valid", "a@b.co", "secret-pass!", "password"},
			{"empty password", "valid", "a@b.co", "", "password"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := env.svc.Register(ctx, tc.username, tc.email, tc.password)
				require.Error(t, err)

				var valErrs validator.ValidationErrors
				require.ErrorAs(t, err, &valErrs)
				assert.True(t, valErrs.Has(tc.field))
			})
		}
	})
}

func TestService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	register := func(t *testing.T, env *testEnv) *auth.User {
		t.Helper()
		result, err := env.svc.Register(ctx, "cook", "cook@example.com", "secretpass1")
		require.NoError(t, err)
		return result.User
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()
		user := register(t, env)

		result, err := env.svc.Login(ctx, "cook@example.com", "secretpass1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Empty(t, result.User.PasswordHash)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()
		register(t, env)

		_, err := env.svc.Login(ctx, "COOK@example.com", "secretpass1")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()
		register(t, env)

		_, err := env.svc.Login(ctx, "cook@example.com", "wrongpass1")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email yields same error as wrong password", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()
		register(t, env)

		_, err := env.svc.Login(ctx, "ghost@example.com", "secretpass1")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("social account without password cannot log in", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		_, err := env.store.Create(ctx, auth.NewUser{
			Username:       "social",
			Email:          "social@example.com",
			SocialProvider: auth.ProviderGoogle,
		})
		require.NoError(t, err)

		_, err = env.svc.Login(ctx, "social@example.com", "")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_VerifyEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("marks account verified", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		result, err := env.svc.Register(ctx, "verifyme", "verify@example.com", "secretpass1")
		require.NoError(t, err)

		token := verifyTokenFromEmail(t, env)
		user, err := env.svc.VerifyEmail(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, user.ID)
		assert.True(t, user.Verified)

		stored, err := env.store.ByID(ctx, result.User.ID)
		require.NoError(t, err)
		assert.True(t, stored.Verified)
	})

	t.Run("second verification is idempotent", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		_, err := env.svc.Register(ctx, "twice", "twice@example.com", "secretpass1")
		require.NoError(t, err)

		token := verifyTokenFromEmail(t, env)
		_, err = env.svc.VerifyEmail(ctx, token)
		require.NoError(t, err)

		user, err := env.svc.VerifyEmail(ctx, token)
		require.NoError(t, err)
		assert.True(t, user.Verified)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		_, err := env.svc.VerifyEmail(ctx, "not.a.token")
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("valid token for deleted account", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		// Token minted for an ID that never existed in the store.
		token := mintToken(t, env, &auth.User{ID: 9999, Username: "ghost"}, time.Hour)
		_, err := env.svc.VerifyEmail(ctx, token)
		require.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("partial update", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		result, err := env.svc.Register(ctx, "editor", "editor@example.com", "secretpass1")
		require.NoError(t, err)

		bio := "I cook things"
		user, err := env.svc.UpdateProfile(ctx, result.User.ID, auth.ProfileUpdate{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "I cook things", user.Bio)
		assert.Equal(t, "editor", user.Username)
	})

	t.Run("username change collides", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		_, err := env.svc.Register(ctx, "existing", "existing@example.com", "secretpass1")
		require.NoError(t, err)
		result, err := env.svc.Register(ctx, "mover", "mover@example.com", "secretpass1")
		require.NoError(t, err)

		taken := "existing"
		_, err = env.svc.UpdateProfile(ctx, result.User.ID, auth.ProfileUpdate{Username: &taken})
		dup, ok := auth.IsDuplicateError(err)
		require.True(t, ok)
		assert.Equal(t, "username", dup.Field)
	})

	t.Run("invalid username rejected", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv()

		result, err := env.svc.Register(ctx, "short", "short@example.com", "secretpass1")
		require.NoError(t, err)

		bad := "ab"
		_, err = env.svc.UpdateProfile(ctx, result.User.ID, auth.ProfileUpdate{Username: &bad})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
	})
}
