// Package onboarding is the top-level controller of the authentication
// flows: it decides which surface is active and how classified backend
// outcomes drive transitions between them. All session writes go through
// here; the negotiator and the OTP challenge stay side-effect free.
package onboarding

import (
	"context"
	"errors"
	"sync"

	"consulting-marketplace/client/internal/api"
	"consulting-marketplace/client/internal/negotiator"
	"consulting-marketplace/client/internal/otp"
	"consulting-marketplace/client/internal/session"
	"consulting-marketplace/client/internal/validate"
)

// State is the onboarding state of the client.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAwaitingOtp     State = "awaiting-otp"
	StateAwaitingProfile State = "awaiting-profile-completion"
	StateAccountPending  State = "account-pending"
	StateAccountRejected State = "account-rejected"
	StateAccountBlocked  State = "account-blocked"
	StateAuthenticated   State = "authenticated"
)

// Route is a navigation destination emitted by the machine.
type Route string

const (
	RouteLogin           Route = "login"
	RouteDashboard       Route = "dashboard"
	RouteStatus          Route = "status"
	RouteSignup          Route = "signup"
	RouteCompleteProfile Route = "complete-profile"
	// RouteSupport is the generic contact-support fallback for unrecognized
	// account statuses.
	RouteSupport Route = "support"
)

// Navigation tells the view layer where to go and with what context.
type Navigation struct {
	Route             Route
	Status            negotiator.Status
	PrefillIdentifier string
	RegistrationToken string
	Mobile            string
}

// Flow identifies a serializable user flow: while a call for a flow is in
// flight, further submissions of the same flow are refused.
type Flow string

const (
	FlowLogin    Flow = "login"
	FlowOTP      Flow = "otp"
	FlowSignup   Flow = "signup"
	FlowProfile  Flow = "profile"
	FlowRecovery Flow = "recovery"
)

var (
	// ErrFlowBusy means a call for this flow is already outstanding.
	ErrFlowBusy = errors.New("onboarding: a request for this flow is already in flight")
	// ErrMissingCredentials means identifier or password was empty.
	ErrMissingCredentials = errors.New("onboarding: identifier and password are required")
	// ErrInvalidRecoveryEmail means the forgot-password email is malformed.
	ErrInvalidRecoveryEmail = errors.New("onboarding: invalid email address")
	// ErrWeakResetPassword means the new password fails the reset policy
	// (8+ characters with upper, lower, and digit).
	ErrWeakResetPassword = errors.New("onboarding: password must be at least 8 characters with upper, lower, and digit")
	// ErrMissingResetToken means the reset token was empty.
	ErrMissingResetToken = errors.New("onboarding: reset token is required")
	// ErrNoChallenge means an OTP operation arrived before a code was
	// requested.
	ErrNoChallenge = errors.New("onboarding: no OTP challenge in progress")
)

// Negotiator is the slice of the session negotiator the machine drives.
type Negotiator interface {
	LoginWithPassword(ctx context.Context, identifier, password string) negotiator.Outcome
	SendOTP(ctx context.Context, mobile string) negotiator.Outcome
	VerifyOTP(ctx context.Context, mobile, code string) negotiator.Outcome
	Signup(ctx context.Context, req api.SignupRequest) negotiator.Outcome
	CompleteProfile(ctx context.Context, req api.RegisterRequest) negotiator.Outcome
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, password string) error
}

// Persister persists the session across restarts. Optional.
type Persister interface {
	Save(sess session.Session) error
	Clear() error
}

// Machine composes the negotiator, OTP challenge, and session store.
type Machine struct {
	neg      Negotiator
	sessions *session.Store

	mu       sync.Mutex
	state    State
	epoch    uint64
	inFlight map[Flow]bool
	lastNav  Navigation
	chal     *otp.Challenge

	persist    Persister
	onNavigate func(Navigation)
	chalOpts   []otp.Option
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithPersister saves the session on authentication and clears it on logout
// and teardown.
func WithPersister(p Persister) MachineOption {
	return func(m *Machine) { m.persist = p }
}

// WithNavigateFunc registers a callback invoked on every navigation the
// machine emits. Called outside the machine lock.
func WithNavigateFunc(f func(Navigation)) MachineOption {
	return func(m *Machine) { m.onNavigate = f }
}

// WithChallengeOptions passes options to OTP challenges the machine creates.
func WithChallengeOptions(opts ...otp.Option) MachineOption {
	return func(m *Machine) { m.chalOpts = opts }
}

// NewMachine returns a machine in the unauthenticated state.
func NewMachine(neg Negotiator, sessions *session.Store, opts ...MachineOption) *Machine {
	m := &Machine{
		neg:      neg,
		sessions: sessions,
		state:    StateUnauthenticated,
		inFlight: make(map[Flow]bool),
		lastNav:  Navigation{Route: RouteLogin},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current onboarding state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Nav returns the last navigation emitted.
func (m *Machine) Nav() Navigation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastNav
}

// RestoreSession installs a previously persisted session, e.g. at app start.
// A session for a role this client does not serve is torn down instead: the
// persisted copy is cleared and the user lands on login.
func (m *Machine) RestoreSession(sess session.Session) error {
	if err := m.sessions.Set(sess.Token, sess.User); err != nil {
		m.teardownPersisted()
		m.setNav(Navigation{Route: RouteLogin})
		return err
	}
	m.mu.Lock()
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.setNav(Navigation{Route: RouteDashboard})
	return nil
}

// LoginWithPassword runs the password login flow end to end.
func (m *Machine) LoginWithPassword(ctx context.Context, identifier, password string) (negotiator.Outcome, error) {
	if identifier == "" || password == "" {
		return negotiator.Outcome{}, ErrMissingCredentials
	}
	epoch, err := m.begin(FlowLogin)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	defer m.end(FlowLogin)
	o := m.neg.LoginWithPassword(ctx, identifier, password)
	m.apply(epoch, o)
	return o, nil
}

// RequestOTP starts (or restarts) the OTP login flow for mobile.
func (m *Machine) RequestOTP(ctx context.Context, mobile string) (negotiator.Outcome, error) {
	epoch, err := m.begin(FlowOTP)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	defer m.end(FlowOTP)
	o, err := m.challenge().RequestCode(ctx, mobile)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	m.apply(epoch, o)
	return o, nil
}

// ResendOTP re-sends the code once the countdown allows it.
func (m *Machine) ResendOTP(ctx context.Context) (negotiator.Outcome, error) {
	m.mu.Lock()
	chal := m.chal
	m.mu.Unlock()
	if chal == nil {
		return negotiator.Outcome{}, ErrNoChallenge
	}
	epoch, err := m.begin(FlowOTP)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	defer m.end(FlowOTP)
	o, err := chal.Resend(ctx)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	m.apply(epoch, o)
	return o, nil
}

// VerifyOTP verifies the entered code against the mobile captured at send
// time and applies the classified outcome.
func (m *Machine) VerifyOTP(ctx context.Context, code string) (negotiator.Outcome, error) {
	m.mu.Lock()
	chal := m.chal
	m.mu.Unlock()
	if chal == nil {
		return negotiator.Outcome{}, ErrNoChallenge
	}
	epoch, err := m.begin(FlowOTP)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	defer m.end(FlowOTP)
	o, err := chal.VerifyCode(ctx, code)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	m.apply(epoch, o)
	return o, nil
}

// ChangeOTPNumber returns the OTP flow to identifier collection, keeping the
// typed mobile for correction.
func (m *Machine) ChangeOTPNumber() {
	m.mu.Lock()
	chal := m.chal
	if m.state == StateAwaitingOtp {
		m.state = StateUnauthenticated
	}
	m.mu.Unlock()
	if chal != nil {
		chal.ChangeNumber()
	}
}

// Challenge exposes the active OTP challenge for countdown display. May be
// nil before the first RequestOTP.
func (m *Machine) Challenge() *otp.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chal
}

// SubmitSignup validates the draft and runs the signup flow.
func (m *Machine) SubmitSignup(ctx context.Context, draft *RegistrationDraft) (negotiator.Outcome, error) {
	req, err := draft.ToRequest()
	if err != nil {
		return negotiator.Outcome{}, err
	}
	epoch, err := m.begin(FlowSignup)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	defer m.end(FlowSignup)
	o := m.neg.Signup(ctx, req)
	m.apply(epoch, o)
	return o, nil
}

// SubmitProfile validates the draft and runs the complete-profile flow.
func (m *Machine) SubmitProfile(ctx context.Context, draft *ProfileDraft) (negotiator.Outcome, error) {
	req, err := draft.ToRequest()
	if err != nil {
		return negotiator.Outcome{}, err
	}
	epoch, err := m.begin(FlowProfile)
	if err != nil {
		return negotiator.Outcome{}, err
	}
	defer m.end(FlowProfile)
	o := m.neg.CompleteProfile(ctx, req)
	m.apply(epoch, o)
	return o, nil
}

// ForgotPassword requests a reset email. Validation failures never reach the
// network.
func (m *Machine) ForgotPassword(ctx context.Context, email string) error {
	if !validate.IsValidEmail(email) {
		return ErrInvalidRecoveryEmail
	}
	if _, err := m.begin(FlowRecovery); err != nil {
		return err
	}
	defer m.end(FlowRecovery)
	return m.neg.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password with a reset token. The reset policy is
// stricter than signup's; both are kept deliberately.
func (m *Machine) ResetPassword(ctx context.Context, resetToken, password string) error {
	if resetToken == "" {
		return ErrMissingResetToken
	}
	if !validate.ValidResetPassword(password) {
		return ErrWeakResetPassword
	}
	if _, err := m.begin(FlowRecovery); err != nil {
		return err
	}
	defer m.end(FlowRecovery)
	return m.neg.ResetPassword(ctx, resetToken, password)
}

// Logout destroys the session, cancels in-flight flow effects, and lands on
// login.
func (m *Machine) Logout() {
	m.sessions.Clear()
	m.teardownPersisted()
	m.mu.Lock()
	m.epoch++
	m.state = StateUnauthenticated
	chal := m.chal
	m.chal = nil
	m.mu.Unlock()
	if chal != nil {
		chal.Close()
	}
	m.setNav(Navigation{Route: RouteLogin})
}

// VisitLogin is the login route guard: an authenticated user is sent to the
// dashboard; a session with a disallowed role is torn down first. Visiting
// also cancels the effect of any still-pending flow call.
func (m *Machine) VisitLogin() Navigation {
	return m.visitEntry(RouteLogin)
}

// VisitSignup is the signup route guard with the same session handling as
// VisitLogin.
func (m *Machine) VisitSignup() Navigation {
	return m.visitEntry(RouteSignup)
}

func (m *Machine) visitEntry(route Route) Navigation {
	m.mu.Lock()
	m.epoch++
	chal := m.chal
	m.chal = nil
	m.mu.Unlock()
	if chal != nil {
		chal.Close()
	}

	if sess, ok := m.sessions.Get(); ok {
		if sess.User.Role.Allowed() {
			m.mu.Lock()
			m.state = StateAuthenticated
			m.mu.Unlock()
			return m.setNav(Navigation{Route: RouteDashboard})
		}
		// Never trust a stored session for an unsupported role.
		m.sessions.Clear()
		m.teardownPersisted()
		m.mu.Lock()
		m.state = StateUnauthenticated
		m.mu.Unlock()
		return m.setNav(Navigation{Route: RouteLogin})
	}
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.mu.Unlock()
	return m.setNav(Navigation{Route: route})
}

// VisitStatus resolves the status route parameter; anything unrecognized
// renders the generic contact-support fallback.
func (m *Machine) VisitStatus(param string) Navigation {
	status := negotiator.ParseStatus(param)
	if status == negotiator.StatusUnknown {
		return m.setNav(Navigation{Route: RouteSupport, Status: status})
	}
	m.mu.Lock()
	m.state = stateForStatus(status)
	m.mu.Unlock()
	return m.setNav(Navigation{Route: RouteStatus, Status: status})
}

// VisitCompleteProfile guards the complete-profile entry point: both the
// registration token and the mobile must be present or the user is sent back
// to login.
func (m *Machine) VisitCompleteProfile(registrationToken, mobile string) Navigation {
	if registrationToken == "" || mobile == "" {
		return m.setNav(Navigation{Route: RouteLogin})
	}
	m.mu.Lock()
	m.state = StateAwaitingProfile
	m.mu.Unlock()
	return m.setNav(Navigation{
		Route:             RouteCompleteProfile,
		RegistrationToken: registrationToken,
		Mobile:            mobile,
	})
}

// begin marks flow as in flight and returns the epoch its outcome must match
// to take effect.
func (m *Machine) begin(flow Flow) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[flow] {
		return 0, ErrFlowBusy
	}
	m.inFlight[flow] = true
	return m.epoch, nil
}

func (m *Machine) end(flow Flow) {
	m.mu.Lock()
	delete(m.inFlight, flow)
	m.mu.Unlock()
}

func (m *Machine) challenge() *otp.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chal == nil {
		m.chal = otp.NewChallenge(m.neg, m.chalOpts...)
	}
	return m.chal
}

// apply folds a classified outcome into the machine. Outcomes from a stale
// epoch (the user navigated away while the call was in flight) are discarded
// entirely. Returns whether the outcome was applied.
func (m *Machine) apply(epoch uint64, o negotiator.Outcome) bool {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return false
	}

	var nav *Navigation
	var closeChal *otp.Challenge
	var saveSess *session.Session

	switch o.Kind {
	case negotiator.KindAuthenticated:
		if o.User == nil || m.sessions.Set(o.Token, *o.User) != nil {
			// Defensive: the negotiator already rejects disallowed roles.
			m.mu.Unlock()
			return false
		}
		m.state = StateAuthenticated
		closeChal, m.chal = m.chal, nil
		saveSess = &session.Session{Token: o.Token, User: *o.User}
		nav = &Navigation{Route: RouteDashboard}

	case negotiator.KindStatusRedirect:
		closeChal, m.chal = m.chal, nil
		if o.Status == negotiator.StatusUnknown {
			nav = &Navigation{Route: RouteSupport, Status: o.Status}
		} else {
			m.state = stateForStatus(o.Status)
			nav = &Navigation{Route: RouteStatus, Status: o.Status}
		}

	case negotiator.KindNeedsSignup:
		closeChal, m.chal = m.chal, nil
		if o.RegistrationToken != "" {
			m.state = StateAwaitingProfile
			nav = &Navigation{
				Route:             RouteCompleteProfile,
				RegistrationToken: o.RegistrationToken,
				Mobile:            o.Identifier,
			}
		} else {
			m.state = StateUnauthenticated
			nav = &Navigation{Route: RouteSignup, PrefillIdentifier: o.Identifier}
		}

	case negotiator.KindCodeSent:
		m.state = StateAwaitingOtp

	case negotiator.KindRejected, negotiator.KindFailed:
		// No transition; the message is surfaced by the caller and inputs
		// stay intact for resubmission.
	}
	m.mu.Unlock()

	if closeChal != nil {
		closeChal.Close()
	}
	if saveSess != nil && m.persist != nil {
		_ = m.persist.Save(*saveSess)
	}
	if nav != nil {
		m.setNav(*nav)
	}
	return true
}

func (m *Machine) setNav(nav Navigation) Navigation {
	m.mu.Lock()
	m.lastNav = nav
	cb := m.onNavigate
	m.mu.Unlock()
	if cb != nil {
		cb(nav)
	}
	return nav
}

func (m *Machine) teardownPersisted() {
	if m.persist != nil {
		_ = m.persist.Clear()
	}
}

func stateForStatus(status negotiator.Status) State {
	switch status {
	case negotiator.StatusPending:
		return StateAccountPending
	case negotiator.StatusRejected:
		return StateAccountRejected
	case negotiator.StatusBlocked:
		return StateAccountBlocked
	default:
		return StateUnauthenticated
	}
}
