package auth

import "time"

// Config holds the authentication module settings.
type Config struct {
	// Secret signs every JWT the service issues.
	Secret string `env:"JWT_SECRET,required"`

	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"168h"`
	VerifyTokenTTL time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL  time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// MailWait bounds how long registration waits for the verification
	// email before answering with emailSent=false.
	MailWait time.Duration `env:"MAIL_WAIT" envDefault:"2s"`
}
