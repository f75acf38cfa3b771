package auth

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Social providers a user account may be linked to. An account created
// through the registration form stays on ProviderNone.
const (
	ProviderNone     = "none"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
	ProviderTwitter  = "twitter"
)

// User is a registered account. PasswordHash never leaves the server:
// it is excluded from JSON and stripped before the user is placed into
// a request context.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Verified       bool      `json:"verified"`
	Bio            string    `json:"bio"`
	Image          string    `json:"image"`
	SocialProvider string    `json:"socialProvider"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Sanitized returns a copy of the user safe to expose outside the
// storage layer.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// NewUser carries the fields needed to insert an account. PasswordHash
// is the bcrypt hash, never the plaintext password; it is empty for
// accounts created through a social provider.
type NewUser struct {
	Username       string
	Email          string
	PasswordHash   string
	Image          string
	SocialProvider string
}

// Patch describes a partial profile update. Nil fields are left
// untouched.
type Patch struct {
	Username       *string
	Bio            *string
	Image          *string
	SocialProvider *string
}

// Claims is the JWT payload shared by access, verification and reset
// tokens. The token kinds differ only in lifetime.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwtlib.RegisteredClaims
}
