package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/platefeed/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when all rules pass", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.Required("username", "ada"),
			validator.MinLen("username", "ada", 3),
			validator.MaxLen("username", "ada", 20),
		)
		assert.NoError(t, err)
	})

	t.Run("collects all failures", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.Required("username", ""),
			validator.ValidEmail("email", "not-an-email"),
		)
		require.Error(t, err)

		valErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.True(t, valErrs.Has("username"))
		assert.True(t, valErrs.Has("email"))
		assert.Equal(t, []string{"username", "email"}, valErrs.Fields())
	})

	t.Run("Get returns per-field messages", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.MinLen("password", "ab", 8),
			validator.Alphanumeric("password", "ab!"),
		)
		require.Error(t, err)

		valErrs := err.(validator.ValidationErrors)
		assert.Len(t, valErrs.Get("password"), 2)
	})
}

func TestStringRules(t *testing.T) {
	t.Parallel()

	t.Run("required rejects whitespace-only values", func(t *testing.T) {
		t.Parallel()

		assert.Error(t, validator.Apply(validator.Required("bio", "   ")))
		assert.NoError(t, validator.Apply(validator.Required("bio", "hi")))
	})

	t.Run("alphanumeric", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, validator.Apply(validator.Alphanumeric("password", "longenough1")))
		assert.Error(t, validator.Apply(validator.Alphanumeric("password", "no spaces!")))
		// empty passes; Required owns presence checks
		assert.NoError(t, validator.Apply(validator.Alphanumeric("password", "")))
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"ada@example.com", "a.b+tag@sub.example.org"}
	for _, email := range valid {
		assert.NoError(t, validator.Apply(validator.ValidEmail("email", email)), email)
	}

	invalid := []string{"", "plain", "@example.com", "a@b", "a@.com", "a@com.", "Ada <ada@example.com>"}
	for _, email := range invalid {
		assert.Error(t, validator.Apply(validator.ValidEmail("email", email)), email)
	}
}
