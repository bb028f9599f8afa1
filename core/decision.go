package core

import "context"

// RoutingDecision is the outcome of request routing: which agent handles the
// request and, optionally, why.
type RoutingDecision struct {
	AgentID   string `json:"agent_id"`
	Rationale string `json:"rationale,omitempty"`
}

// ExecutionDecision is the outcome of strategy selection: direct single-pass
// execution or a multi-step plan.
type ExecutionDecision struct {
	Mode      ExecutionMode `json:"mode"`
	Rationale string        `json:"rationale,omitempty"`
}

// PromptSet is an immutable, versioned view of the prompt configuration
// resolved once per request. Implementations must not mutate shared state.
type PromptSet interface {
	// Lookup returns the prompt text registered under key.
	Lookup(key string) (string, bool)
	// Version identifies the resolved prompt pack.
	Version() string
}

// DecisionModel is the opaque language-model capability consumed by the
// router, the strategy selector and the plan executor. Implementations
// format prompts, invoke a model and parse structured output; the engine
// never sees any of that. Methods return an error for unparseable or
// out-of-vocabulary results so callers can apply their documented fallbacks.
type DecisionModel interface {
	// Route selects one of the given agents (id -> description) for the
	// request.
	Route(ctx context.Context, request, contextSummary string, agents map[string]string) (RoutingDecision, error)

	// SelectMode decides between direct and plan execution.
	SelectMode(ctx context.Context, request, contextSummary string) (ExecutionDecision, error)

	// Plan produces an objective and ordered step descriptions for the
	// request. The executor normalizes the step count afterwards.
	Plan(ctx context.Context, request, contextSummary string) (objective string, steps []string, err error)

	// Synthesize combines all step results into the final response text.
	Synthesize(ctx context.Context, objective string, results []string) (string, error)

	// WithPrompts returns a copy of the decision model bound to the given
	// prompt snapshot. The receiver is left untouched.
	WithPrompts(prompts PromptSet) DecisionModel
}
