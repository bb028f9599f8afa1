// Package engine wires routing, strategy selection, plan execution, session
// persistence and event streaming into the orchestration entry points Invoke
// and Stream.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/executor"
	"github.com/hupe1980/agentpilot/internal/util"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/prompt"
	"github.com/hupe1980/agentpilot/registry"
	"github.com/hupe1980/agentpilot/router"
	"github.com/hupe1980/agentpilot/session"
	"github.com/hupe1980/agentpilot/stream"
	"github.com/hupe1980/agentpilot/ui"
)

// Options configures an Engine instance.
type Options struct {
	Store           session.Store
	Logger          logging.Logger
	Prompts         *prompt.Manager
	UIGenerator     *ui.Generator
	DefaultAgent    string
	CallTimeout     time.Duration
	StepTimeout     time.Duration
	EventBufferSize int
}

// Request is a single orchestration request.
type Request struct {
	// Prompt is the user input. Required.
	Prompt string `json:"prompt"`
	// AgentID routes explicitly to a named agent, bypassing the routing
	// model. Explicit routing always executes in direct mode.
	AgentID string `json:"agent_id,omitempty"`
	// SessionID continues an existing session. Empty creates a new one.
	SessionID string `json:"session_id,omitempty"`
	// PlanStepBudget caps the number of plan steps executed this invoke.
	// Zero or negative means no cap.
	PlanStepBudget int `json:"plan_step_budget,omitempty"`
	// TraceTools enables status events in the stream.
	TraceTools bool `json:"trace_tools,omitempty"`
	// GenerateUI requests a structured UI spec for the final response.
	GenerateUI bool `json:"generate_ui,omitempty"`
	// PromptVersion overrides the active prompt pack version.
	PromptVersion string `json:"prompt_version,omitempty"`
}

// Response is the blocking result of an orchestration request.
type Response struct {
	Response      string             `json:"response"`
	SessionID     string             `json:"session_id"`
	ExecutionMode core.ExecutionMode `json:"execution_mode"`
	SelectedAgent string             `json:"selected_agent"`
	PromptVersion string             `json:"prompt_version,omitempty"`
	UISpec        *ui.Spec           `json:"ui_spec,omitempty"`
}

// Engine orchestrates request handling end to end.
type Engine struct {
	registry  *registry.Registry
	decisions core.DecisionModel
	opts      Options
}

// New creates an engine over an immutable registry and a decision model.
func New(reg *registry.Registry, decisions core.DecisionModel, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		DefaultAgent:    "general_assistant",
		CallTimeout:     60 * time.Second,
		StepTimeout:     120 * time.Second,
		EventBufferSize: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore()
	}

	return &Engine{registry: reg, decisions: decisions, opts: opts}
}

// Invoke handles a request and blocks until the final response is available.
// Intermediate events are discarded.
func (e *Engine) Invoke(ctx context.Context, req Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}

	em := e.newEmitter(req)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range em.Events() {
		}
	}()

	resp, err := e.run(ctx, req, em)
	<-done
	return resp, err
}

// Stream handles a request and returns the ordered event stream. The channel
// is closed after the terminal done event; failures surface as an error
// metadata event before done.
func (e *Engine) Stream(ctx context.Context, req Request) (<-chan core.Event, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}

	em := e.newEmitter(req)
	go func() {
		if _, err := e.run(ctx, req, em); err != nil {
			e.opts.Logger.Error("stream run failed", "session_id", req.SessionID, "error", err)
		}
	}()
	return em.Events(), nil
}

func (e *Engine) newEmitter(req Request) *stream.Emitter {
	return stream.NewEmitter(func(o *stream.Options) {
		o.BufferSize = e.opts.EventBufferSize
		o.TraceTools = req.TraceTools
	})
}

// run drives the pipeline and always terminates the stream, successful or
// not, so consumers observe done as the last event.
func (e *Engine) run(ctx context.Context, req Request, em *stream.Emitter) (*Response, error) {
	resp, err := e.pipeline(ctx, req, em)
	em.Finish(ctx, resp.SessionID, resp.SelectedAgent, resp.ExecutionMode, resp.Response, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (e *Engine) pipeline(ctx context.Context, req Request, em *stream.Emitter) (*Response, error) {
	resp := &Response{SessionID: req.SessionID}

	decisions, version, err := e.resolveDecisions(req.PromptVersion)
	if err != nil {
		return resp, err
	}
	resp.PromptVersion = version

	sess, err := e.loadSession(req.SessionID)
	if err != nil {
		return resp, err
	}
	resp.SessionID = sess.ID
	summary := core.BuildContext(sess)

	// Contextual loggers carry session and run identifiers on every entry
	// below this point.
	logger := e.opts.Logger
	if pl, ok := logger.(*logging.PilotLogger); ok {
		logger = pl.WithSession(sess.ID, uuid.NewString())
	}

	rt := router.New(e.registry, decisions, e.opts.DefaultAgent, func(o *router.Options) {
		o.CallTimeout = e.opts.CallTimeout
		o.Logger = logger
	})
	routing, err := rt.Route(ctx, req.Prompt, summary, req.AgentID)
	if err != nil {
		return resp, err
	}
	resp.SelectedAgent = routing.AgentID

	worker, ok := e.registry.Lookup(routing.AgentID)
	if !ok {
		return resp, core.NewAgentNotFound(routing.AgentID)
	}

	selector := router.NewSelector(decisions, func(o *router.SelectorOptions) {
		o.CallTimeout = e.opts.CallTimeout
		o.Logger = logger
	})
	decision := selector.Decide(ctx, req.Prompt, summary, req.AgentID != "")
	resp.ExecutionMode = decision.Mode

	if err := em.Emit(ctx, core.NewMetadataEvent("start", sess.ID, routing.AgentID, decision.Mode)); err != nil {
		return resp, err
	}
	if err := em.Emit(ctx, core.NewStatusEvent(fmt.Sprintf("routed to %s: %s", routing.AgentID, routing.Rationale))); err != nil {
		return resp, err
	}

	var finalText string
	switch decision.Mode {
	case core.ModePlan:
		finalText, err = e.runPlan(ctx, em, logger, decisions, sess, worker, req, summary)
	default:
		finalText, err = e.runDirect(ctx, em, logger, worker, req, summary)
	}
	if err != nil {
		return resp, err
	}
	resp.Response = finalText

	if req.GenerateUI && e.opts.UIGenerator != nil {
		spec, uiErr := e.opts.UIGenerator.Generate(ctx, req.Prompt, finalText)
		if uiErr == nil && spec != nil {
			resp.UISpec = spec
			if err := em.Emit(ctx, core.NewUIEvent(spec)); err != nil {
				return resp, err
			}
		}
	}

	sess.RecordRun(core.RunRecord{
		Input:           req.Prompt,
		ResponseSummary: util.Truncate(finalText, 200),
		Mode:            decision.Mode,
		AgentID:         routing.AgentID,
		Timestamp:       time.Now().UTC(),
	})
	if err := e.opts.Store.Update(sess); err != nil {
		return resp, err
	}

	return resp, nil
}

// resolveDecisions binds the decision model to the requested prompt pack
// version, or the active one when no override was given.
func (e *Engine) resolveDecisions(override string) (core.DecisionModel, string, error) {
	if e.opts.Prompts == nil {
		if override != "" {
			return nil, "", fmt.Errorf("prompt version %q requested but no prompt manager is configured", override)
		}
		return e.decisions, "", nil
	}

	snap, err := e.opts.Prompts.Resolve(override)
	if err != nil {
		return nil, "", err
	}
	return e.decisions.WithPrompts(snap), snap.Version(), nil
}

func (e *Engine) loadSession(sessionID string) (*core.Session, error) {
	if sessionID == "" {
		return e.opts.Store.Create()
	}
	return e.opts.Store.Get(sessionID)
}

// runDirect invokes the worker once. Workers that support token streaming
// feed the event stream as tokens arrive; otherwise the emitter produces one
// synthetic token for the full response.
func (e *Engine) runDirect(ctx context.Context, em *stream.Emitter, logger logging.Logger, worker core.Capability, req Request, summary core.ContextSummary) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	start := time.Now()

	var text string
	var err error
	if sw, ok := worker.(core.StreamingCapability); ok {
		text, err = sw.InvokeStream(callCtx, req.Prompt, summary.String(), func(token string) {
			_ = em.Emit(ctx, core.NewTokenEvent(token))
		})
	} else {
		text, err = worker.Invoke(callCtx, req.Prompt, summary.String())
	}

	logger.Debug("direct invocation finished",
		"agent", worker.ID(),
		"duration", time.Since(start).String(),
		"error", err,
	)
	return text, err
}

// runPlan delegates to the budgeted executor with hooks that forward plan,
// status and step events into the stream.
func (e *Engine) runPlan(
	ctx context.Context,
	em *stream.Emitter,
	logger logging.Logger,
	decisions core.DecisionModel,
	sess *core.Session,
	worker core.Capability,
	req Request,
	summary core.ContextSummary,
) (string, error) {
	exec := executor.New(e.opts.Store, decisions, func(o *executor.Options) {
		o.CallTimeout = e.opts.CallTimeout
		o.StepTimeout = e.opts.StepTimeout
		o.Logger = logger
	})

	hooks := executor.Hooks{
		OnPlan: func(p *core.Plan) {
			_ = em.Emit(ctx, core.NewPlanEvent(p))
		},
		OnStatus: func(msg string) {
			_ = em.Emit(ctx, core.NewStatusEvent(msg))
		},
		OnStep: func(s core.PlanStep) {
			_ = em.Emit(ctx, core.NewStepResultEvent(s))
		},
	}

	res, err := exec.Run(ctx, sess, worker, req.Prompt, summary, req.PlanStepBudget, hooks)
	if err != nil {
		return "", err
	}
	return res.Response, nil
}
