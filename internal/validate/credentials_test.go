package validate

import "testing"

func TestIsValidEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"user@example.com", true},
		{"a.b+c@sub.example.co", true},
		{"user@localhost", false},
		{"user example@site.com", false},
		{"@example.com", false},
		{"user@", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsValidEmail(c.in); got != c.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizeMobile(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+91 98765-43210", "919876543210"},
		{"(987) 654-3210", "9876543210"},
		{"9876543210", "9876543210"},
		{"abc", ""},
		{"", ""},
	}
	for _, c := range cases {
		got := NormalizeMobile(c.in)
		if got != c.want {
			t.Errorf("NormalizeMobile(%q) = %q, want %q", c.in, got, c.want)
		}
		if again := NormalizeMobile(got); again != got {
			t.Errorf("NormalizeMobile not idempotent for %q: %q -> %q", c.in, got, again)
		}
	}
}

func TestIsValidMobileBoundary(t *testing.T) {
	if !IsValidMobile("9876543210") {
		t.Error("exactly 10 digits should be valid")
	}
	if IsValidMobile("987654321") {
		t.Error("9 digits should be invalid")
	}
	if !IsValidMobile("+91 98765 43210") {
		t.Error("formatted 12-digit number should be valid")
	}
}

func TestIsOTPCode(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsOTPCode(c.in); got != c.want {
			t.Errorf("IsOTPCode(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// The signup and reset policies are intentionally different: signup accepts
// any 6+ character password with a matching confirmation, reset demands 8+
// characters with mixed case and a digit. Known inconsistency kept for
// backend compatibility; do not unify without a contract change.
func TestPasswordPoliciesStayDistinct(t *testing.T) {
	if !ValidSignupPassword("simple", "simple") {
		t.Error("signup: 6-char password with matching confirm should pass")
	}
	if ValidSignupPassword("simple", "other") {
		t.Error("signup: mismatched confirmation should fail")
	}
	if ValidSignupPassword("short", "short") {
		t.Error("signup: 5-char password should fail")
	}

	if ValidResetPassword("simple") {
		t.Error("reset: password accepted by signup policy should fail reset policy")
	}
	if !ValidResetPassword("Str0ngpass") {
		t.Error("reset: 8+ chars with upper, lower, digit should pass")
	}
	if ValidResetPassword("alllower1") {
		t.Error("reset: missing uppercase should fail")
	}
	if ValidResetPassword("ALLUPPER1") {
		t.Error("reset: missing lowercase should fail")
	}
	if ValidResetPassword("NoDigits") {
		t.Error("reset: missing digit should fail")
	}
	if ValidResetPassword("Ab1") {
		t.Error("reset: short password should fail")
	}
}
