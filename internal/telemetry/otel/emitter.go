package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"consulting-marketplace/client/internal/telemetry"
)

// NewFlowEmitter returns an Emitter that writes flow events as OTel log
// records via the given LoggerProvider. A nil provider yields a no-op.
func NewFlowEmitter(provider *sdklog.LoggerProvider) telemetry.Emitter {
	if provider == nil {
		return telemetry.Nop{}
	}
	return &flowEmitter{logger: provider.Logger("marketplace.onboarding")}
}

type flowEmitter struct {
	logger otellog.Logger
}

// Emit converts the flow event to an OTel log record.
func (e *flowEmitter) Emit(ctx context.Context, ev telemetry.FlowEvent) error {
	rec := otellog.Record{}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetBody(otellog.StringValue("onboarding flow event"))
	if ev.Flow != "" {
		rec.AddAttributes(otellog.String("flow", ev.Flow))
	}
	if ev.Outcome != "" {
		rec.AddAttributes(otellog.String("outcome", ev.Outcome))
	}
	if ev.AttemptID != "" {
		rec.AddAttributes(otellog.String("attempt_id", ev.AttemptID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
