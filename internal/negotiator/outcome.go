// Package negotiator performs the backend negotiations for every onboarding
// flow and classifies the responses into outcomes that drive the state
// machine. It never stores a session itself.
package negotiator

import "consulting-marketplace/client/internal/api"

// Kind identifies the classified result of a negotiation.
type Kind string

const (
	// KindAuthenticated carries a token and user ready for the session store.
	KindAuthenticated Kind = "authenticated"
	// KindRejected is a well-formed success this client refuses (admin role).
	KindRejected Kind = "rejected"
	// KindStatusRedirect routes to an account-status page; no session.
	KindStatusRedirect Kind = "status-redirect"
	// KindNeedsSignup routes to signup or complete-profile with carried context.
	KindNeedsSignup Kind = "needs-signup"
	// KindCodeSent acknowledges an OTP send.
	KindCodeSent Kind = "code-sent"
	// KindFailed surfaces the backend message verbatim; no transition.
	KindFailed Kind = "failed"
)

// Status is a server-side account approval state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
	// StatusUnknown is the fallback for unrecognized status values; it maps
	// to a generic contact-support display, never a crash.
	StatusUnknown Status = "unknown"
)

// ParseStatus maps a status route parameter to a Status, falling back to
// StatusUnknown for anything unrecognized.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusRejected, StatusBlocked:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// ReasonAdminForbidden marks a rejection of an admin-role success payload.
const ReasonAdminForbidden = "admin-forbidden"

// Outcome is a classified negotiation result. Kind says which fields are set.
type Outcome struct {
	Kind Kind

	// Authenticated.
	Token string
	User  *api.User

	// StatusRedirect.
	Status Status

	// NeedsSignup. Identifier pre-fills the signup entry point;
	// RegistrationToken, when set, authorizes the complete-profile flow.
	Identifier        string
	RegistrationToken string

	// Rejected.
	Reason string

	// Failed; also set on Rejected for display.
	Message string
}

func authenticated(token string, user api.User) Outcome {
	return Outcome{Kind: KindAuthenticated, Token: token, User: &user}
}

func rejectedAdmin() Outcome {
	return Outcome{
		Kind:    KindRejected,
		Reason:  ReasonAdminForbidden,
		Message: "Administrator accounts cannot sign in here",
	}
}

func statusRedirect(status Status) Outcome {
	return Outcome{Kind: KindStatusRedirect, Status: status}
}

func needsSignup(identifier, registrationToken string) Outcome {
	return Outcome{Kind: KindNeedsSignup, Identifier: identifier, RegistrationToken: registrationToken}
}

func failed(message string) Outcome {
	return Outcome{Kind: KindFailed, Message: message}
}
