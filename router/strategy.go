package router

import (
	"context"
	"time"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/logging"
)

// SelectorOptions configures a Selector.
type SelectorOptions struct {
	CallTimeout time.Duration
	Logger      logging.Logger
}

// Selector decides between direct single-pass execution and a multi-step
// plan.
type Selector struct {
	decisions core.DecisionModel
	opts      SelectorOptions
}

// NewSelector constructs a strategy Selector.
func NewSelector(decisions core.DecisionModel, optFns ...func(o *SelectorOptions)) *Selector {
	opts := SelectorOptions{CallTimeout: 60 * time.Second, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Selector{decisions: decisions, opts: opts}
}

// Decide picks the execution mode. Explicit routing forces direct mode
// without consulting the decision model. An invalid or unparseable model
// result defaults to direct.
func (s *Selector) Decide(ctx context.Context, request string, summary core.ContextSummary, explicitlyRouted bool) core.ExecutionDecision {
	if explicitlyRouted {
		return core.ExecutionDecision{
			Mode:      core.ModeDirect,
			Rationale: "explicit routing implies direct execution",
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	decision, err := s.decisions.SelectMode(callCtx, request, summary.String())
	if err != nil {
		s.opts.Logger.Warn("strategy: defaulting to direct", "error", err.Error())
		return core.ExecutionDecision{Mode: core.ModeDirect, Rationale: "fallback (strategy model error)"}
	}
	if decision.Mode != core.ModeDirect && decision.Mode != core.ModePlan {
		s.opts.Logger.Warn("strategy: model returned invalid mode", "mode", string(decision.Mode))
		return core.ExecutionDecision{Mode: core.ModeDirect, Rationale: "fallback (invalid mode)"}
	}
	return decision
}
