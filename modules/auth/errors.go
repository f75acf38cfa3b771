package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("invalid token, verification unsuccessful")
	ErrMissingToken       = errors.New("token is not provided")
	ErrNoEmail            = errors.New("social profile has no email address")
	ErrUnknownProvider    = errors.New("unknown social provider")
)

// DuplicateError reports a unique-constraint collision on a user field.
type DuplicateError struct {
	Field string // "email" or "username"
}

func (e *DuplicateError) Error() string {
	return e.Field + " already exists"
}

// IsDuplicateError reports whether err is a DuplicateError, returning it
// for inspection.
func IsDuplicateError(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
