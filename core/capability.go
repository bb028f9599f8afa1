package core

import "context"

// ExecutionMode distinguishes single-pass execution from multi-step plan
// execution.
type ExecutionMode string

const (
	// ModeDirect satisfies the request with one worker call.
	ModeDirect ExecutionMode = "direct"
	// ModePlan satisfies the request through the plan executor.
	ModePlan ExecutionMode = "plan"
)

// Capability is the interface every worker implements: LLM-backed agents,
// HTTP-fetch tools, calculators and any other invocable unit of work. The
// orchestration engine only ever consumes this interface; concrete variants
// are tagged by construction, not by inheritance.
type Capability interface {
	// ID returns the unique identifier this capability is invoked by.
	ID() string

	// Description is a short summary used for routing and model guidance.
	Description() string

	// RequiredCapabilities lists ids of other capabilities this one depends
	// on. The registry resolves them at build time; an unresolvable
	// reference fails construction of the owning agent with a ConfigError.
	RequiredCapabilities() []string

	// Invoke performs the work for input, given a compact summary of the
	// session context, and returns the textual result. Implementations must
	// respect ctx cancellation and deadlines; the engine treats a deadline
	// the same as a worker failure.
	Invoke(ctx context.Context, input, contextSummary string) (string, error)
}

// StreamingCapability is implemented by capabilities that can surface
// incremental output. Tokens are pushed to the callback in order before
// InvokeStream returns the final text. Capabilities without incremental
// output simply implement Capability; the stream emitter then synthesizes a
// single token event from the final text.
type StreamingCapability interface {
	Capability

	InvokeStream(ctx context.Context, input, contextSummary string, onToken func(string)) (string, error)
}
