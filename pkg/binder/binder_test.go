package binder_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/platefeed/pkg/binder"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes valid body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co","password":"secret"}`))
		r.Header.Set("Content-Type", "application/json")

		var req loginRequest
		require.NoError(t, binder.JSON(r, &req))
		assert.Equal(t, "a@b.co", req.Email)
		assert.Equal(t, "secret", req.Password)
	})

	t.Run("accepts charset parameter", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var req loginRequest
		require.NoError(t, binder.JSON(r, &req))
	})

	t.Run("accepts missing content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co"}`))

		var req loginRequest
		require.NoError(t, binder.JSON(r, &req))
	})

	t.Run("rejects wrong media type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")

		var req loginRequest
		err := binder.JSON(r, &req)
		require.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(""))
		r.Header.Set("Content-Type", "application/json")

		var req loginRequest
		err := binder.JSON(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co","nope":1}`))
		r.Header.Set("Content-Type", "application/json")

		var req loginRequest
		err := binder.JSON(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
	})

	t.Run("rejects trailing data", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co"}{"email":"c@d.co"}`))
		r.Header.Set("Content-Type", "application/json")

		var req loginRequest
		err := binder.JSON(r, &req)
		require.ErrorIs(t, err, binder.ErrInvalidJSON)
	})
}
