// Package otp owns the one-time-code request/verify cycle and the
// resend-countdown timer. A Challenge is created when the OTP login flow
// starts and closed when the flow moves on; the countdown never outlives it.
package otp

import (
	"context"
	"errors"
	"sync"
	"time"

	"consulting-marketplace/client/internal/negotiator"
	"consulting-marketplace/client/internal/validate"
)

// Step is the current input the challenge is collecting.
type Step int

const (
	// StepCollectIdentifier collects the mobile number.
	StepCollectIdentifier Step = iota
	// StepCollectCode collects the 6-digit code sent to the mobile.
	StepCollectCode
)

const defaultResendSeconds = 30

var (
	// ErrInvalidMobile means the mobile did not normalize to >= 10 digits.
	// Client-side validation; no request was made.
	ErrInvalidMobile = errors.New("otp: mobile number must have at least 10 digits")
	// ErrInvalidCode means the code is not exactly 6 digits.
	ErrInvalidCode = errors.New("otp: code must be exactly 6 digits")
	// ErrWrongStep means the operation does not apply to the current step.
	ErrWrongStep = errors.New("otp: operation not valid for current step")
	// ErrResendNotReady means the resend countdown has not reached zero.
	ErrResendNotReady = errors.New("otp: resend not available yet")
)

// Negotiator is the slice of the session negotiator the challenge needs.
type Negotiator interface {
	SendOTP(ctx context.Context, mobile string) negotiator.Outcome
	VerifyOTP(ctx context.Context, mobile, code string) negotiator.Outcome
}

// Challenge is the OTP step machine: collect-identifier -> collect-code, with
// a resend countdown scoped to the collect-code step.
type Challenge struct {
	mu            sync.Mutex
	neg           Negotiator
	step          Step
	mobile        string // normalized, captured at send time
	remaining     int
	resendSeconds int
	tickEvery     time.Duration
	onTick        func(remaining int)
	cancelTick    context.CancelFunc
}

// Option configures a Challenge.
type Option func(*Challenge)

// WithResendSeconds overrides the 30 s resend countdown.
func WithResendSeconds(s int) Option {
	return func(c *Challenge) {
		if s > 0 {
			c.resendSeconds = s
		}
	}
}

// WithTickInterval overrides the 1 s countdown tick. Test hook.
func WithTickInterval(d time.Duration) Option {
	return func(c *Challenge) {
		if d > 0 {
			c.tickEvery = d
		}
	}
}

// WithTickFunc registers a callback invoked with the remaining seconds after
// every countdown tick. Called outside the challenge lock.
func WithTickFunc(f func(remaining int)) Option {
	return func(c *Challenge) { c.onTick = f }
}

// NewChallenge returns a challenge at the collect-identifier step.
func NewChallenge(neg Negotiator, opts ...Option) *Challenge {
	c := &Challenge{
		neg:           neg,
		step:          StepCollectIdentifier,
		resendSeconds: defaultResendSeconds,
		tickEvery:     time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remaining = c.resendSeconds
	return c
}

// Step returns the current step.
func (c *Challenge) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Mobile returns the normalized mobile captured at send time, or the value
// kept across a ChangeNumber so the user can correct a typo.
func (c *Challenge) Mobile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mobile
}

// Remaining returns the resend countdown in seconds.
func (c *Challenge) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// CanResend reports whether the resend action is enabled: only at the
// collect-code step and only once the countdown has reached zero.
func (c *Challenge) CanResend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step == StepCollectCode && c.remaining == 0
}

// RequestCode validates the mobile, asks the negotiator to send a code, and
// on success moves to the collect-code step with the countdown armed. On
// failure the step is unchanged and the outcome is returned to the caller.
func (c *Challenge) RequestCode(ctx context.Context, mobile string) (negotiator.Outcome, error) {
	normalized := validate.NormalizeMobile(mobile)
	if !validate.IsValidMobile(normalized) {
		return negotiator.Outcome{}, ErrInvalidMobile
	}
	o := c.neg.SendOTP(ctx, normalized)
	if o.Kind == negotiator.KindCodeSent {
		c.mu.Lock()
		c.step = StepCollectCode
		c.mobile = normalized
		c.mu.Unlock()
		c.armCountdown()
	}
	return o, nil
}

// Resend re-sends the code to the mobile captured at send time. Only allowed
// once the countdown has reached zero; success re-arms it to the full value
// regardless of its prior state.
func (c *Challenge) Resend(ctx context.Context) (negotiator.Outcome, error) {
	c.mu.Lock()
	if c.step != StepCollectCode {
		c.mu.Unlock()
		return negotiator.Outcome{}, ErrWrongStep
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return negotiator.Outcome{}, ErrResendNotReady
	}
	mobile := c.mobile
	c.mu.Unlock()

	o := c.neg.SendOTP(ctx, mobile)
	if o.Kind == negotiator.KindCodeSent {
		c.armCountdown()
	}
	return o, nil
}

// VerifyCode validates the 6-digit code and delegates to the negotiator with
// the mobile captured at send time, never a later edit. Session state is the
// caller's concern.
func (c *Challenge) VerifyCode(ctx context.Context, code string) (negotiator.Outcome, error) {
	c.mu.Lock()
	if c.step != StepCollectCode {
		c.mu.Unlock()
		return negotiator.Outcome{}, ErrWrongStep
	}
	mobile := c.mobile
	c.mu.Unlock()
	if !validate.IsOTPCode(code) {
		return negotiator.Outcome{}, ErrInvalidCode
	}
	return c.neg.VerifyOTP(ctx, mobile, code), nil
}

// ChangeNumber returns to the collect-identifier step and resets the
// countdown. The mobile is kept so the user can correct a typo without
// retyping the whole number.
func (c *Challenge) ChangeNumber() {
	c.mu.Lock()
	c.step = StepCollectIdentifier
	c.remaining = c.resendSeconds
	cancel := c.cancelTick
	c.cancelTick = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels the countdown. Must be called on every exit path of the OTP
// flow; a timer firing after the flow has moved on is a bug.
func (c *Challenge) Close() {
	c.mu.Lock()
	cancel := c.cancelTick
	c.cancelTick = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// armCountdown (re)starts the countdown goroutine, replacing any running one.
func (c *Challenge) armCountdown() {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	prev := c.cancelTick
	c.cancelTick = cancel
	c.remaining = c.resendSeconds
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
	go c.runCountdown(ctx)
}

func (c *Challenge) runCountdown(ctx context.Context) {
	t := time.NewTicker(c.tickEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.mu.Lock()
			if c.step != StepCollectCode || c.remaining == 0 {
				c.mu.Unlock()
				return
			}
			c.remaining--
			rem := c.remaining
			cb := c.onTick
			c.mu.Unlock()
			if cb != nil {
				cb(rem)
			}
			if rem == 0 {
				return
			}
		}
	}
}
