package auth

import "context"

// Store is the persistence boundary for user accounts.
//
// Lookup methods return ErrUserNotFound when no row matches. Create and
// Update return *DuplicateError when a unique constraint on email or
// username is violated.
type Store interface {
	// Create inserts a new account and returns it with the generated ID
	// and timestamps populated.
	Create(ctx context.Context, nu NewUser) (*User, error)

	ByID(ctx context.Context, id int64) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)

	// Update applies a partial profile change and returns the updated user.
	Update(ctx context.Context, id int64, p Patch) (*User, error)

	// SetPasswordHash replaces the stored bcrypt hash.
	SetPasswordHash(ctx context.Context, id int64, hash string) error

	// SetVerified marks the account's email as verified. The returned
	// bool is false when no account with the ID exists. Re-verifying an
	// already verified account is not an error.
	SetVerified(ctx context.Context, id int64) (bool, error)

	// FindOrCreateByEmail returns the account owning nu.Email, creating
	// it from nu when absent. The bool reports whether a new row was
	// inserted.
	FindOrCreateByEmail(ctx context.Context, nu NewUser) (*User, bool, error)
}
