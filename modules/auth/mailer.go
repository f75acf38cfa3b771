package auth

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/platefeed/platefeed/pkg/email"
)

// Mailer composes and dispatches the authentication emails. Links point
// back at the application's own base URL so the email content follows
// deployments around.
type Mailer struct {
	sender   email.EmailSender
	siteName string
	baseURL  string
}

// NewMailer creates a Mailer. baseURL is the public origin of the
// application, e.g. "https://platefeed.io".
func NewMailer(sender email.EmailSender, siteName, baseURL string) *Mailer {
	return &Mailer{
		sender:   sender,
		siteName: siteName,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// VerificationLink builds the email verification URL for a token.
func (m *Mailer) VerificationLink(token string) string {
	return m.baseURL + "/users/verify?token=" + url.QueryEscape(token)
}

// ResetLink builds the password reset URL for a token. It targets the
// frontend reset page, which submits the token back to the API.
func (m *Mailer) ResetLink(token string) string {
	return m.baseURL + "/reset-password?token=" + url.QueryEscape(token)
}

// SendVerification mails the email verification link.
func (m *Mailer) SendVerification(ctx context.Context, to, username, token string) error {
	link := m.VerificationLink(token)
	body := fmt.Sprintf(`
		<div style="font-family:sans-serif;max-width:480px;margin:0 auto">
			<h2>Welcome to %s, %s!</h2>
			<p>Please confirm your email address to finish setting up your account.</p>
			<p><a href="%s" style="display:inline-block;padding:10px 20px;background:#5cb85c;color:#fff;text-decoration:none;border-radius:4px">Verify email</a></p>
			<p>If the button does not work, copy this link into your browser:<br>%s</p>
			<p>The link expires in 24 hours.</p>
		</div>`,
		html.EscapeString(m.siteName), html.EscapeString(username), link, link,
	)

	return m.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("Welcome to %s, please verify your email", m.siteName),
		BodyHTML: body,
		Tag:      "email-verification",
	})
}

// SendPasswordReset mails the password reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, username, token string) error {
	link := m.ResetLink(token)
	body := fmt.Sprintf(`
		<div style="font-family:sans-serif;max-width:480px;margin:0 auto">
			<h2>Password reset</h2>
			<p>Hi %s, we received a request to reset your %s password.</p>
			<p><a href="%s" style="display:inline-block;padding:10px 20px;background:#337ab7;color:#fff;text-decoration:none;border-radius:4px">Reset password</a></p>
			<p>If the button does not work, copy this link into your browser:<br>%s</p>
			<p>The link expires in 1 hour. If you did not request a reset, you can ignore this email.</p>
		</div>`,
		html.EscapeString(username), html.EscapeString(m.siteName), link, link,
	)

	return m.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("%s password reset", m.siteName),
		BodyHTML: body,
		Tag:      "password-reset",
	})
}
