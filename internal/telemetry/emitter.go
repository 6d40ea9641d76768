// Package telemetry defines the flow-event emitter used by the onboarding
// core. Events describe flow lifecycle only; secrets, codes, and tokens are
// never attached.
package telemetry

import (
	"context"
	"time"
)

// FlowEvent records the outcome of one negotiation attempt.
type FlowEvent struct {
	Flow      string    // e.g. "password-login", "otp-verify"
	Outcome   string    // outcome kind, e.g. "authenticated", "needs-signup"
	AttemptID string    // correlation id for this attempt
	At        time.Time // zero means emit time
}

// Emitter emits flow events. Best-effort; callers ignore errors.
type Emitter interface {
	Emit(ctx context.Context, ev FlowEvent) error
}

// Nop is an Emitter that discards events.
type Nop struct{}

func (Nop) Emit(context.Context, FlowEvent) error { return nil }
