// Package validate holds the stateless credential predicates used by the
// onboarding flows. All functions are pure and never return an error; callers
// translate false into a user-facing validation message and abort before any
// network call is made.
package validate

import (
	"regexp"
	"strings"
)

// emailPattern accepts local@domain.tld: non-whitespace local part and a
// domain with at least one dot-separated label.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizeMobile strips every non-digit character from s. It does not
// validate length; see IsValidMobile. Idempotent.
func NormalizeMobile(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// IsValidMobile reports whether s normalizes to at least 10 digits.
func IsValidMobile(s string) bool {
	return len(NormalizeMobile(s)) >= 10
}

// IsOTPCode reports whether s is exactly six digits.
func IsOTPCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidSignupPassword applies the signup password policy: at least 6
// characters and equal to its confirmation.
//
// Signup and reset deliberately use different policies; the backend contract
// predates the stronger reset rule and both are preserved as-is.
func ValidSignupPassword(password, confirm string) bool {
	return len(password) >= 6 && password == confirm
}

// ValidResetPassword applies the reset password policy: at least 8 characters
// with at least one lowercase letter, one uppercase letter, and one digit.
func ValidResetPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}
