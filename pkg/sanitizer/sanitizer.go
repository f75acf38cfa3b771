// Package sanitizer normalizes untrusted input before validation and storage.
package sanitizer

import "strings"

// Trim removes leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lowercases and trims an email address so that lookups and
// uniqueness checks treat "Ada@Example.com " and "ada@example.com" as the
// same identity. Values without a single @ are returned trimmed/lowered as-is
// and left for the validator to reject.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := strings.Trim(parts[0], ".")
	return local + "@" + parts[1]
}
