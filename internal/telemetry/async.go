package telemetry

import (
	"context"
	"log"
	"time"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not
// blocked. Use from flow code for fire-and-forget, best-effort telemetry;
// errors are logged.
//
// emitter may be nil; EmitAsync returns immediately without starting a
// goroutine. The goroutine uses context.Background() with emitTimeout so flow
// cancellation does not abort an in-flight emit.
func EmitAsync(emitter Emitter, ev FlowEvent) {
	if emitter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, ev); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
