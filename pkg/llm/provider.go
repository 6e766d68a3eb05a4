// Package llm adapts external AI vendors behind one provider interface.
// A provider is selected once at startup; everything downstream is
// vendor-agnostic and treats any provider error as a signal to fall back
// one tier.
package llm

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// ErrProviderUnavailable wraps any embedding or completion failure,
// including timeouts. Callers do not distinguish the cause.
var ErrProviderUnavailable = errors.New("llm: provider unavailable")

// ErrToolsUnsupported reports that the active provider cannot do tool
// selection; the router should use its deterministic rules instead.
var ErrToolsUnsupported = errors.New("llm: tool selection not supported")

// System prompts shared by both vendors.
const (
	synthesisSystemPrompt = "You are a helpful assistant that provides accurate, factual answers based on the provided context."
	routerSystemPrompt    = "You are an intelligent query router for a Tier-0 enterprise system. Analyze the user's question and determine which data source(s) to search. You can call multiple functions if the question requires data from multiple sources."
)

// throttle enforces the per-provider requests-per-minute ceiling on
// embedding calls. Zero RPM means unlimited.
type throttle struct {
	limiter *rate.Limiter
}

func newThrottle(requestsPerMinute float64) throttle {
	if requestsPerMinute <= 0 {
		return throttle{}
	}
	return throttle{limiter: rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), 1)}
}

func (t throttle) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
