package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/platefeed/pkg/jwt"
)

type testClaims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwtlib.RegisteredClaims
}

const testSecret = "test-secret-at-least-32-bytes-long"

func newService(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewFromString(testSecret)
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := jwt.NewFromString("")
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	svc, err := jwt.NewFromString(testSecret)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	issued := testClaims{
		UserID:   42,
		Username: "ada",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwt.NumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NumericDate(time.Now()),
		},
	}

	token, err := svc.Generate(issued)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var parsed testClaims
	require.NoError(t, svc.Parse(token, &parsed))
	assert.Equal(t, int64(42), parsed.UserID)
	assert.Equal(t, "ada", parsed.Username)
}

func TestParseFailures(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(testClaims{
			UserID: 1,
			RegisteredClaims: jwtlib.RegisteredClaims{
				ExpiresAt: jwt.NumericDate(time.Now().Add(-time.Minute)),
			},
		})
		require.NoError(t, err)

		err = svc.Parse(token, &testClaims{})
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		err := svc.Parse("not.a.token", &testClaims{})
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		other, err := jwt.NewFromString("another-secret-also-32-bytes-long!")
		require.NoError(t, err)

		token, err := other.Generate(testClaims{UserID: 1})
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Parse(token, &testClaims{}), jwt.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(testClaims{UserID: 1})
		require.NoError(t, err)

		tampered := token[:len(token)-4] + "AAAA"
		assert.ErrorIs(t, svc.Parse(tampered, &testClaims{}), jwt.ErrInvalidToken)
	})
}

func TestBearerTokenExtractor(t *testing.T) {
	t.Parallel()

	t.Run("extracts bearer token", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer abc123")

		token, err := jwt.BearerTokenExtractor(r)
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := jwt.BearerTokenExtractor(r)
		assert.ErrorIs(t, err, jwt.ErrMissingToken)
	})

	t.Run("raw header value without scheme is rejected", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "abc123")
		_, err := jwt.BearerTokenExtractor(r)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestQueryTokenExtractor(t *testing.T) {
	t.Parallel()

	extract := jwt.QueryTokenExtractor("token")

	r := httptest.NewRequest(http.MethodGet, "/users/verify?token=xyz", nil)
	token, err := extract(r)
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	r = httptest.NewRequest(http.MethodGet, "/users/verify", nil)
	_, err = extract(r)
	assert.ErrorIs(t, err, jwt.ErrMissingToken)
}
