package negotiator

import (
	"errors"
	"strings"

	"consulting-marketplace/client/internal/api"
)

// The backend reports account state through free-text error messages; the
// exact substrings below are the dispatch keys of that contract. Changing
// them silently breaks the redirect behavior, so the whole table lives here
// and nowhere else. Newer backend revisions send a machine-readable code
// which is honored before any text matching.

var errorCodes = map[string]Status{
	"account_pending":  StatusPending,
	"account_rejected": StatusRejected,
	"account_blocked":  StatusBlocked,
}

const errorCodeUserNotFound = "user_not_found"

// statusSubstrings are matched case-sensitively, in order.
var statusSubstrings = []struct {
	substr string
	status Status
}{
	{"pending approval", StatusPending},
	{"application has been rejected", StatusRejected},
	{"has been blocked", StatusBlocked},
}

// signupSubstrings are matched case-insensitively; any hit routes the user
// to signup instead of showing a raw error.
var signupSubstrings = []string{
	"invalid login",
	"not found",
	"user not found",
}

// classifyFailure turns a login/verify error into an outcome. identifier is
// carried into NeedsSignup so the signup entry point can be pre-filled.
// Non-backend errors (network, decode) surface verbatim as Failed.
func classifyFailure(identifier string, err error) Outcome {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return failed(err.Error())
	}
	if apiErr.Code != "" {
		if status, ok := errorCodes[apiErr.Code]; ok {
			return statusRedirect(status)
		}
		if apiErr.Code == errorCodeUserNotFound {
			return needsSignup(identifier, "")
		}
	}
	msg := apiErr.Message
	for _, m := range statusSubstrings {
		if strings.Contains(msg, m.substr) {
			return statusRedirect(m.status)
		}
	}
	lower := strings.ToLower(msg)
	for _, s := range signupSubstrings {
		if strings.Contains(lower, s) {
			return needsSignup(identifier, "")
		}
	}
	return failed(apiErr.Error())
}
