package negotiator

import (
	"context"

	"github.com/google/uuid"

	"consulting-marketplace/client/internal/api"
	"consulting-marketplace/client/internal/telemetry"
)

// Flow names used in telemetry events.
const (
	flowPasswordLogin   = "password-login"
	flowOTPSend         = "otp-send"
	flowOTPVerify       = "otp-verify"
	flowSignup          = "signup"
	flowCompleteProfile = "complete-profile"
)

// Negotiator calls the backend and classifies responses. One method per flow;
// every method returns a classified Outcome and performs no session side
// effects. There is no retry at this layer: a Failed outcome means the user
// resubmits.
type Negotiator struct {
	backend api.Backend
	emit    telemetry.Emitter
}

// New returns a Negotiator over the given backend. emit may be nil.
func New(backend api.Backend, emit telemetry.Emitter) *Negotiator {
	if emit == nil {
		emit = telemetry.Nop{}
	}
	return &Negotiator{backend: backend, emit: emit}
}

// LoginWithPassword authenticates with an email-or-mobile identifier and a
// password. A success payload carrying an admin role is rejected before any
// session can be stored.
func (n *Negotiator) LoginWithPassword(ctx context.Context, identifier, password string) Outcome {
	payload, err := n.backend.Login(ctx, identifier, password)
	if err != nil {
		return n.record(ctx, flowPasswordLogin, classifyFailure(identifier, err))
	}
	return n.record(ctx, flowPasswordLogin, acceptAuth(payload))
}

// SendOTP requests a one-time code for mobile.
func (n *Negotiator) SendOTP(ctx context.Context, mobile string) Outcome {
	if _, err := n.backend.SendOTP(ctx, mobile); err != nil {
		return n.record(ctx, flowOTPSend, failed(err.Error()))
	}
	return n.record(ctx, flowOTPSend, Outcome{Kind: KindCodeSent})
}

// VerifyOTP verifies a code for mobile. When the backend reports a new user,
// the outcome carries the issued registration token and the mobile forward
// for the complete-profile flow; no session exists in that case.
func (n *Negotiator) VerifyOTP(ctx context.Context, mobile, code string) Outcome {
	res, err := n.backend.VerifyOTP(ctx, mobile, code)
	if err != nil {
		return n.record(ctx, flowOTPVerify, classifyFailure(mobile, err))
	}
	if res.IsNewUser {
		return n.record(ctx, flowOTPVerify, needsSignup(mobile, res.RegistrationToken))
	}
	if res.User == nil {
		return n.record(ctx, flowOTPVerify, failed("backend returned no user for a verified code"))
	}
	return n.record(ctx, flowOTPVerify, acceptAuth(&api.AuthPayload{Token: res.Token, User: *res.User}))
}

// Signup submits a registration draft payload. A freshly created consultant
// account starts pending and yields a status redirect with no session.
func (n *Negotiator) Signup(ctx context.Context, req api.SignupRequest) Outcome {
	payload, err := n.backend.Signup(ctx, req)
	if err != nil {
		return n.record(ctx, flowSignup, failed(err.Error()))
	}
	if payload.User.Role == api.RoleConsultant {
		return n.record(ctx, flowSignup, statusRedirect(StatusPending))
	}
	return n.record(ctx, flowSignup, acceptAuth(payload))
}

// CompleteProfile finishes a deferred registration using the registration
// token issued at OTP-verify time.
func (n *Negotiator) CompleteProfile(ctx context.Context, req api.RegisterRequest) Outcome {
	payload, err := n.backend.Register(ctx, req)
	if err != nil {
		return n.record(ctx, flowCompleteProfile, failed(err.Error()))
	}
	return n.record(ctx, flowCompleteProfile, acceptAuth(payload))
}

// ForgotPassword requests a password-reset email. No session side effects.
func (n *Negotiator) ForgotPassword(ctx context.Context, email string) error {
	return n.backend.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password using a reset token. No session side
// effects.
func (n *Negotiator) ResetPassword(ctx context.Context, resetToken, password string) error {
	return n.backend.ResetPassword(ctx, resetToken, password)
}

// acceptAuth guards a success payload: admin roles are never accepted.
func acceptAuth(payload *api.AuthPayload) Outcome {
	if !payload.User.Role.Allowed() {
		return rejectedAdmin()
	}
	return authenticated(payload.Token, payload.User)
}

// record emits the flow event asynchronously; a slow telemetry backend must
// never delay an outcome.
func (n *Negotiator) record(_ context.Context, flow string, o Outcome) Outcome {
	telemetry.EmitAsync(n.emit, telemetry.FlowEvent{
		Flow:      flow,
		Outcome:   string(o.Kind),
		AttemptID: uuid.NewString(),
	})
	return o
}
