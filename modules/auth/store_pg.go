package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platefeed/platefeed/pkg/pg"
)

// pgStore implements Store on top of a pgx connection pool.
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a Postgres-backed user store.
func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const userColumns = `id, username, email, COALESCE(password_hash, ''), verified, bio, image, social_provider, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Verified,
		&u.Bio,
		&u.Image,
		&u.SocialProvider,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// storeErr maps driver errors onto the package's error vocabulary.
func storeErr(err error, op string) error {
	switch {
	case pg.IsNotFoundError(err):
		return ErrUserNotFound
	case pg.IsDuplicateKeyError(err):
		field := pg.DuplicateKeyColumn(err)
		if field == "" {
			field = "user"
		}
		return &DuplicateError{Field: field}
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *pgStore) Create(ctx context.Context, nu NewUser) (*User, error) {
	provider := nu.SocialProvider
	if provider == "" {
		provider = ProviderNone
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, image, social_provider)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING `+userColumns,
		nu.Username, nu.Email, nu.PasswordHash, nu.Image, provider,
	)

	u, err := scanUser(row)
	if err != nil {
		return nil, storeErr(err, "create user")
	}
	return u, nil
}

func (s *pgStore) ByID(ctx context.Context, id int64) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, storeErr(err, "get user by id")
	}
	return u, nil
}

func (s *pgStore) ByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, storeErr(err, "get user by email")
	}
	return u, nil
}

func (s *pgStore) ByUsername(ctx context.Context, username string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, storeErr(err, "get user by username")
	}
	return u, nil
}

func (s *pgStore) Update(ctx context.Context, id int64, p Patch) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET
			username        = COALESCE($2, username),
			bio             = COALESCE($3, bio),
			image           = COALESCE($4, image),
			social_provider = COALESCE($5, social_provider),
			updated_at      = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Username, p.Bio, p.Image, p.SocialProvider,
	)

	u, err := scanUser(row)
	if err != nil {
		return nil, storeErr(err, "update user")
	}
	return u, nil
}

func (s *pgStore) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = NULLIF($2, ''), updated_at = now()
		WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return storeErr(err, "set password hash")
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *pgStore) SetVerified(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET verified = TRUE, updated_at = now()
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, storeErr(err, "set verified")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *pgStore) FindOrCreateByEmail(ctx context.Context, nu NewUser) (*User, bool, error) {
	u, err := s.ByEmail(ctx, nu.Email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	u, err = s.Create(ctx, nu)
	if err == nil {
		return u, true, nil
	}

	// Lost a race with a concurrent insert for the same email.
	if dup, ok := IsDuplicateError(err); ok && dup.Field == "email" {
		u, err = s.ByEmail(ctx, nu.Email)
		if err != nil {
			return nil, false, err
		}
		return u, false, nil
	}
	return nil, false, err
}
