package router

import (
	"context"
	"time"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/registry"
)

// Options configures a Router.
type Options struct {
	// CallTimeout bounds each decision model call.
	CallTimeout time.Duration
	Logger      logging.Logger
}

// Router selects a target capability for a request, or accepts an explicit
// override.
type Router struct {
	registry     *registry.Registry
	decisions    core.DecisionModel
	defaultAgent string
	opts         Options
}

// New constructs a Router. defaultAgent is substituted whenever the decision
// model produces an unknown or unparseable agent id.
func New(reg *registry.Registry, decisions core.DecisionModel, defaultAgent string, optFns ...func(o *Options)) *Router {
	opts := Options{CallTimeout: 60 * time.Second, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{registry: reg, decisions: decisions, defaultAgent: defaultAgent, opts: opts}
}

// Route resolves the request to an agent id. An explicit id is used verbatim
// and must exist in the registry; otherwise the decision model picks one of
// the registered agents, with the configured default agent as fallback.
func (r *Router) Route(ctx context.Context, request string, summary core.ContextSummary, explicitAgentID string) (core.RoutingDecision, error) {
	if explicitAgentID != "" {
		if _, ok := r.registry.Lookup(explicitAgentID); !ok {
			return core.RoutingDecision{}, core.NewAgentNotFound(explicitAgentID)
		}
		return core.RoutingDecision{
			AgentID:   explicitAgentID,
			Rationale: "explicitly targeted: " + explicitAgentID,
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.opts.CallTimeout)
	defer cancel()

	agents := r.registry.Descriptions()
	decision, err := r.decisions.Route(callCtx, request, summary.String(), agents)
	if err != nil {
		r.opts.Logger.Warn("router: falling back to default agent", "error", err.Error())
		return r.fallback("routing model error"), nil
	}
	if _, ok := r.registry.Lookup(decision.AgentID); !ok {
		r.opts.Logger.Warn("router: model selected unknown agent", "agent", decision.AgentID)
		return r.fallback("model selected unregistered agent " + decision.AgentID), nil
	}
	return decision, nil
}

func (r *Router) fallback(reason string) core.RoutingDecision {
	return core.RoutingDecision{
		AgentID:   r.defaultAgent,
		Rationale: "fallback (" + reason + ")",
	}
}
